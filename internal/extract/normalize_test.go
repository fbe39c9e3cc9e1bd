package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/llm"
	"github.com/Veraticus/serena/internal/model"
)

func rawRecord() model.ExtractionRecord {
	return model.ExtractionRecord{
		ServiceName:    model.StringPtr("Uber"),
		ActionDatetime: model.StringPtr("3/5/24 9:00am"),
		Amount:         model.StringPtr("$23.10"),
		SourcePath:     "/a/a2p_eml_1.txt",
		Item:           []model.Item{{Name: "Ride"}},
	}
}

func TestNormalize_UsesFencedOracleReply(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{"service_name": "Uber", "action_datetime": "2024/03/05 09:00:00", "message_datetime": "", "action_keyword": "", "address1": "", "address2": "", "amount": "USD 23.10", "item": [{"name": "Ride"}], "mobile_number": "", "source_path": "/elsewhere"}` + "\n```"
	mock := llm.NewMockClient(llm.MockResponse{Reply: reply})

	n := NewNormalizer(mock, common.DiscardLogger())
	got, err := n.Normalize(context.Background(), rawRecord())
	require.NoError(t, err)

	assert.Equal(t, "2024/03/05 09:00:00", got.ActionDatetime)
	assert.Equal(t, "USD 23.10", got.Amount)
	assert.Equal(t, "/a/a2p_eml_1.txt", got.SourcePath)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.NormalizationInstruction, calls[0].SystemInstruction)
	assert.Zero(t, calls[0].Temperature)
	assert.Equal(t, 1000, calls[0].MaxOutputTokens)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].UserContent), &sent))
	assert.Equal(t, "Uber", sent["service_name"])
	assert.Contains(t, sent, "message_datetime")
	assert.Nil(t, sent["message_datetime"])
}

func TestNormalize_FallsBackToRawRecord(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"oracle error", "", errors.New("unavailable")},
		{"no fenced block", `{"service_name": "Uber"}`, nil},
		{"broken json", "```json\n{\"service_name\": }\n```", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient(llm.MockResponse{Reply: tt.reply, Err: tt.err})
			got, err := NewNormalizer(mock, common.DiscardLogger()).Normalize(context.Background(), rawRecord())
			assert.Error(t, err)

			assert.Equal(t, "Uber", got.ServiceName)
			assert.Equal(t, "2024/03/05 09:00:00", got.ActionDatetime)
			assert.Equal(t, "USD 23.10", got.Amount)
			assert.Equal(t, "", got.MessageDatetime)
			assert.Equal(t, []model.Item{{Name: "Ride"}}, got.Item)
		})
	}
}

func TestFinalize_NeverDropsRawValues(t *testing.T) {
	candidate := model.ExtractionRecord{
		ServiceName: model.StringPtr(""),
		Amount:      nil,
		SourcePath:  "/other",
	}
	got := Finalize(candidate, rawRecord())

	assert.Equal(t, "Uber", got.ServiceName)
	assert.Equal(t, "USD 23.10", got.Amount)
	assert.Equal(t, "/a/a2p_eml_1.txt", got.SourcePath)
	assert.Equal(t, []model.Item{{Name: "Ride"}}, got.Item)
}

func TestFinalize_NoNullsInOutput(t *testing.T) {
	got := Finalize(model.ExtractionRecord{SourcePath: "/x"}, model.ExtractionRecord{SourcePath: "/x"})

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	for _, name := range model.FieldNames {
		require.Contains(t, obj, name)
		assert.NotNil(t, obj[name], name)
	}
	assert.Equal(t, []any{}, obj[model.FieldItem])
	assert.Equal(t, "", obj[model.FieldAmount])
}

func TestNormalize_WithoutOracle(t *testing.T) {
	got, err := NewNormalizer(nil, common.DiscardLogger()).Normalize(context.Background(), rawRecord())
	require.NoError(t, err)
	assert.Equal(t, "2024/03/05 09:00:00", got.ActionDatetime)
}

func TestFinalize_BareTimeIsNotADate(t *testing.T) {
	raw := model.ExtractionRecord{
		ActionDatetime: model.StringPtr("9:00am"),
		SourcePath:     "/a/a2p_eml_2.txt",
	}
	got := Finalize(raw, raw)
	assert.Equal(t, "9:00am", got.ActionDatetime)
}

func TestFinalize_Amount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Total: 10,000원", "KRW 10,000"},
		{"USD 12.50 (incl. tax)", "USD 12.50"},
		{"$23.10", "USD 23.10"},
		{"USD 10 or USD 12", "USD 10 or USD 12"},
		{"about 5 bucks", "about 5 bucks"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			raw := model.ExtractionRecord{Amount: model.StringPtr(tt.raw), SourcePath: "/x"}
			got := Finalize(raw, raw)
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, tt.raw, *raw.Amount)
		})
	}
}
