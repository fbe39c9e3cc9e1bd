package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/serena/internal/model"
)

func TestCoerce(t *testing.T) {
	raw := json.RawMessage(`{
		"service_name": "Uber",
		"action_datetime": "3/5/24 9:00am",
		"message_datetime": null,
		"action_keyword": "None",
		"address1": ["12 Main St", null, "Apt 4"],
		"address2": [null, "Gate B"],
		"amount": ["USD 10", "USD 99"],
		"item": [{"name": "Ride", "qty": 1}, "Tip", null],
		"mobile_number": 5551234,
		"source_path": "ignored",
		"confidence": 0.9
	}`)

	rec, err := Coerce(raw, "/root/A2P-classified-text/a2p_eml_1.txt")
	require.NoError(t, err)

	assert.Equal(t, "/root/A2P-classified-text/a2p_eml_1.txt", rec.SourcePath)
	assert.Equal(t, model.StringPtr("Uber"), rec.ServiceName)
	assert.Equal(t, model.StringPtr("3/5/24 9:00am"), rec.ActionDatetime)
	assert.Nil(t, rec.MessageDatetime)
	assert.Nil(t, rec.ActionKeyword)
	assert.Equal(t, model.StringPtr("12 Main St"), rec.Address1)
	assert.Equal(t, model.StringPtr("Gate B"), rec.Address2)
	assert.Equal(t, model.StringPtr("USD 99"), rec.Amount)
	assert.Equal(t, model.StringPtr("5551234"), rec.MobileNumber)
	assert.Equal(t, []model.Item{
		{Name: "Ride", Extra: map[string]string{"qty": "1"}},
		{Name: "Tip"},
	}, rec.Item)
}

func TestCoerce_Items(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []model.Item
	}{
		{"null", `{"item": null}`, nil},
		{"absent", `{}`, nil},
		{"single object", `{"item": {"name": "Latte"}}`, []model.Item{{Name: "Latte"}}},
		{"single string", `{"item": "Latte"}`, []model.Item{{Name: "Latte"}}},
		{"empty list", `{"item": []}`, nil},
		{"alternate name key", `{"item": [{"product": "Mug", "price": "USD 8"}]}`, []model.Item{{Name: "Mug", Extra: map[string]string{"price": "USD 8"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Coerce(json.RawMessage(tt.json), "p")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Item)
		})
	}
}

func TestCoerce_RejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"text"`, `null`, `{`} {
		_, err := Coerce(json.RawMessage(in), "p")
		assert.Error(t, err, in)
	}
}

func TestCoerce_CaseInsensitiveKeys(t *testing.T) {
	rec, err := Coerce(json.RawMessage(`{"Service_Name": "Netflix", "AMOUNT": "$15.49"}`), "p")
	require.NoError(t, err)
	assert.Equal(t, model.StringPtr("Netflix"), rec.ServiceName)
	assert.Equal(t, model.StringPtr("$15.49"), rec.Amount)
}

func TestCoerce_ListsKeepOneLiteralValue(t *testing.T) {
	tests := []struct {
		name string
		json string
		want *string
	}{
		{"first value", `{"service_name": ["Uber", "Uber Eats"]}`, model.StringPtr("Uber")},
		{"nulls skipped", `{"service_name": [null, "N/A", "Lyft"]}`, model.StringPtr("Lyft")},
		{"only nulls", `{"service_name": [null, "none"]}`, nil},
		{"empty list", `{"service_name": []}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Coerce(json.RawMessage(tt.json), "p")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.ServiceName)
		})
	}
}
