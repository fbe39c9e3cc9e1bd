package model

import (
	"encoding/json"
)

// NormalizedRecord is an extraction record after date and currency
// canonicalization. Every field is always present; a missing value is the
// empty string, never null.
type NormalizedRecord struct {
	ServiceName     string `json:"service_name"`
	ActionDatetime  string `json:"action_datetime"`
	MessageDatetime string `json:"message_datetime"`
	ActionKeyword   string `json:"action_keyword"`
	Address1        string `json:"address1"`
	Address2        string `json:"address2"`
	Amount          string `json:"amount"`
	MobileNumber    string `json:"mobile_number"`
	SourcePath      string `json:"source_path"`
	Item            []Item `json:"item"`
}

// MarshalJSON keeps item as a list even when no items were found.
func (n NormalizedRecord) MarshalJSON() ([]byte, error) {
	type plain NormalizedRecord
	p := plain(n)
	if p.Item == nil {
		p.Item = []Item{}
	}
	return json.Marshal(p)
}

// Scalar returns a pointer to the named scalar field, or nil for unknown names.
func (n *NormalizedRecord) Scalar(name string) *string {
	switch name {
	case FieldServiceName:
		return &n.ServiceName
	case FieldActionDatetime:
		return &n.ActionDatetime
	case FieldMessageDatetime:
		return &n.MessageDatetime
	case FieldActionKeyword:
		return &n.ActionKeyword
	case FieldAddress1:
		return &n.Address1
	case FieldAddress2:
		return &n.Address2
	case FieldAmount:
		return &n.Amount
	case FieldMobileNumber:
		return &n.MobileNumber
	case FieldSourcePath:
		return &n.SourcePath
	default:
		return nil
	}
}

// Key is the structural identity of the record: two records with the same
// key have identical field values, provenance included.
func (n NormalizedRecord) Key() string {
	data, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(data)
}

// Equal reports structural equality.
func (n NormalizedRecord) Equal(other NormalizedRecord) bool {
	return n.Key() == other.Key()
}

// ItemNames returns the item names joined for display.
func (n NormalizedRecord) ItemNames() []string {
	names := make([]string, 0, len(n.Item))
	for _, it := range n.Item {
		names = append(names, it.Name)
	}
	return names
}

// FromExtraction copies every set field of r into a normalized record
// without rewriting any values. Unset fields become empty strings.
func FromExtraction(r ExtractionRecord) NormalizedRecord {
	var n NormalizedRecord
	for _, name := range FieldNames {
		if name == FieldItem {
			continue
		}
		if v, ok := r.Value(name); ok {
			*n.Scalar(name) = v
		}
	}
	n.SourcePath = r.SourcePath
	n.Item = append([]Item{}, r.Item...)
	return n
}
