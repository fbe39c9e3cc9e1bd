package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/serena/internal/model"
)

// itemNameKeys are the keys tried, in order, when an item object has no
// "name" key.
var itemNameKeys = []string{"item_name", "product", "title", "description", "item"}

// Coerce turns an untyped JSON object from the oracle into a typed
// extraction record. Scalars of any JSON type become strings, absent values
// and null-like strings become nil, a list of amounts collapses to the
// highest one, other lists to their first value, and items become a list. Keys outside the field set are
// dropped. sourcePath always wins over anything in the reply.
func Coerce(raw json.RawMessage, sourcePath string) (model.ExtractionRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.ExtractionRecord{}, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if obj == nil {
		return model.ExtractionRecord{}, fmt.Errorf("reply is not a JSON object: null")
	}

	rec := model.ExtractionRecord{SourcePath: sourcePath}
	for _, name := range model.FieldNames {
		value, ok := lookupField(obj, name)
		if !ok {
			continue
		}
		if name == model.FieldItem {
			items, err := coerceItems(value)
			if err != nil {
				return model.ExtractionRecord{}, fmt.Errorf("field %s: %w", name, err)
			}
			rec.Item = items
			continue
		}

		var s *string
		if name == model.FieldAmount {
			s = coerceAmount(value)
		} else {
			s = coerceScalar(value)
		}
		*rec.Scalar(name) = s
	}
	return rec, nil
}

// lookupField finds name in obj, falling back to a case-insensitive match.
func lookupField(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return v, true
		}
	}
	return nil, false
}

func isNullLike(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "none", "n/a":
		return true
	}
	return false
}

// coerceScalar converts any JSON value into an optional string. A list
// yields its first non-null element, which keeps the value a literal span of
// the message text.
func coerceScalar(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err == nil {
			for _, e := range elems {
				if s := coerceScalar(e); s != nil {
					return s
				}
			}
			return nil
		}
	}

	s, ok := model.JSONScalar(raw)
	if !ok || isNullLike(s) {
		return nil
	}
	if raw[0] == '{' {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			s = buf.String()
		}
	}
	return model.StringPtr(s)
}

// coerceAmount keeps only the highest of several amounts. Each candidate is
// kept as the literal span the oracle returned.
func coerceAmount(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	var candidates []string

	var elems []json.RawMessage
	if len(raw) > 0 && raw[0] == '[' && json.Unmarshal(raw, &elems) == nil {
		for _, e := range elems {
			if s := coerceScalar(e); s != nil {
				candidates = append(candidates, *s)
			}
		}
	} else if s := coerceScalar(raw); s != nil {
		candidates = append(candidates, *s)
	}

	if len(candidates) == 0 {
		return nil
	}
	best, ok := HighestAmount(candidates)
	if !ok {
		return model.StringPtr(candidates[0])
	}
	return model.StringPtr(best)
}

func coerceItems(raw json.RawMessage) ([]model.Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("invalid item list: %w", err)
		}
		items := make([]model.Item, 0, len(elems))
		for _, e := range elems {
			item, ok, err := coerceItem(e)
			if err != nil {
				return nil, err
			}
			if ok {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, nil
	default:
		item, ok, err := coerceItem(raw)
		if err != nil || !ok {
			return nil, err
		}
		return []model.Item{item}, nil
	}
}

func coerceItem(raw json.RawMessage) (model.Item, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return model.Item{}, false, nil
	}

	if raw[0] != '{' {
		s := coerceScalar(raw)
		if s == nil {
			return model.Item{}, false, nil
		}
		return model.Item{Name: *s}, true, nil
	}

	var item model.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.Item{}, false, fmt.Errorf("invalid item: %w", err)
	}
	if item.Name == "" {
		for _, key := range itemNameKeys {
			if v, ok := item.Extra[key]; ok && v != "" {
				item.Name = v
				delete(item.Extra, key)
				break
			}
		}
	}
	if len(item.Extra) == 0 {
		item.Extra = nil
	}
	return item, true, nil
}
