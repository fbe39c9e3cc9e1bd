package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field names in the order the extraction prompt lists them.
const (
	FieldServiceName     = "service_name"
	FieldActionDatetime  = "action_datetime"
	FieldMessageDatetime = "message_datetime"
	FieldActionKeyword   = "action_keyword"
	FieldAddress1        = "address1"
	FieldAddress2        = "address2"
	FieldAmount          = "amount"
	FieldItem            = "item"
	FieldMobileNumber    = "mobile_number"
	FieldSourcePath      = "source_path"
	FieldError           = "error"
)

// FieldNames lists the nine extracted fields.
var FieldNames = []string{
	FieldServiceName,
	FieldActionDatetime,
	FieldMessageDatetime,
	FieldActionKeyword,
	FieldAddress1,
	FieldAddress2,
	FieldAmount,
	FieldItem,
	FieldMobileNumber,
}

// DateFields are the fields rewritten to the canonical timestamp format.
var DateFields = []string{FieldActionDatetime, FieldMessageDatetime}

// Item is one ordered item found in a message. Name is always present;
// any other keys the oracle returned are kept as strings in Extra.
type Item struct {
	Extra map[string]string
	Name  string
}

// MarshalJSON flattens Extra next to name.
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(i.Extra)+1)
	for k, v := range i.Extra {
		out[k] = v
	}
	out["name"] = i.Name
	return json.Marshal(out)
}

// UnmarshalJSON accepts any object with a name key; non-string values are
// rendered to their JSON text.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("item must be an object: %w", err)
	}
	i.Name = ""
	i.Extra = nil
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok := JSONScalar(raw[k])
		if !ok {
			continue
		}
		if k == "name" {
			i.Name = s
			continue
		}
		if i.Extra == nil {
			i.Extra = make(map[string]string)
		}
		i.Extra[k] = s
	}
	return nil
}

// JSONScalar converts a raw JSON value into its string form. Strings are
// unquoted, null yields false, everything else is kept as compact JSON text.
func JSONScalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// ExtractionRecord is the structured field set pulled from one A2P unit.
// A nil field means the oracle found no value. When Error is set the domain
// fields are unreliable and the record must be shown as failed.
type ExtractionRecord struct {
	ServiceName     *string
	ActionDatetime  *string
	MessageDatetime *string
	ActionKeyword   *string
	Address1        *string
	Address2        *string
	Amount          *string
	MobileNumber    *string
	SourcePath      string
	Error           string
	Item            []Item
}

// NewErrorRecord builds the minimal record for a unit that could not be extracted.
func NewErrorRecord(sourcePath string, err error) ExtractionRecord {
	return ExtractionRecord{SourcePath: sourcePath, Error: err.Error()}
}

// Failed reports whether this record carries an extraction error.
func (r ExtractionRecord) Failed() bool {
	return r.Error != ""
}

// Scalar returns a pointer to the named scalar field, or nil for unknown names.
func (r *ExtractionRecord) Scalar(name string) **string {
	switch name {
	case FieldServiceName:
		return &r.ServiceName
	case FieldActionDatetime:
		return &r.ActionDatetime
	case FieldMessageDatetime:
		return &r.MessageDatetime
	case FieldActionKeyword:
		return &r.ActionKeyword
	case FieldAddress1:
		return &r.Address1
	case FieldAddress2:
		return &r.Address2
	case FieldAmount:
		return &r.Amount
	case FieldMobileNumber:
		return &r.MobileNumber
	default:
		return nil
	}
}

// Value returns the named scalar field as a string and whether it was set.
func (r ExtractionRecord) Value(name string) (string, bool) {
	p := r.Scalar(name)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

type rawRecordJSON struct {
	ServiceName     *string `json:"service_name"`
	ActionDatetime  *string `json:"action_datetime"`
	MessageDatetime *string `json:"message_datetime"`
	ActionKeyword   *string `json:"action_keyword"`
	Address1        *string `json:"address1"`
	Address2        *string `json:"address2"`
	Amount          *string `json:"amount"`
	Item            []Item  `json:"item"`
	MobileNumber    *string `json:"mobile_number"`
	SourcePath      string  `json:"source_path"`
}

type errorRecordJSON struct {
	SourcePath string `json:"source_path"`
	Error      string `json:"error"`
}

// MarshalJSON writes either the full field set with explicit nulls or, for
// failed records, only source_path and error.
func (r ExtractionRecord) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(errorRecordJSON{SourcePath: r.SourcePath, Error: r.Error})
	}
	return json.Marshal(rawRecordJSON{
		ServiceName:     r.ServiceName,
		ActionDatetime:  r.ActionDatetime,
		MessageDatetime: r.MessageDatetime,
		ActionKeyword:   r.ActionKeyword,
		Address1:        r.Address1,
		Address2:        r.Address2,
		Amount:          r.Amount,
		Item:            r.Item,
		MobileNumber:    r.MobileNumber,
		SourcePath:      r.SourcePath,
	})
}

// UnmarshalJSON reads records previously written by MarshalJSON.
func (r *ExtractionRecord) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	var body rawRecordJSON
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*r = ExtractionRecord{
		ServiceName:     body.ServiceName,
		ActionDatetime:  body.ActionDatetime,
		MessageDatetime: body.MessageDatetime,
		ActionKeyword:   body.ActionKeyword,
		Address1:        body.Address1,
		Address2:        body.Address2,
		Amount:          body.Amount,
		Item:            body.Item,
		MobileNumber:    body.MobileNumber,
		SourcePath:      body.SourcePath,
	}
	if probe.Error != nil {
		r.Error = *probe.Error
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Extraction pairs the raw record for a unit with its normalized form.
type Extraction struct {
	Raw        ExtractionRecord
	Normalized NormalizedRecord
}
