package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/serena/internal/llm"
	"github.com/Veraticus/serena/internal/model"
)

// Normalizer rewrites raw extraction records into canonical form.
type Normalizer struct {
	oracle llm.Client
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. oracle may be nil, in which case only
// the local canonicalization runs.
func NewNormalizer(oracle llm.Client, logger *slog.Logger) *Normalizer {
	return &Normalizer{oracle: oracle, logger: logger}
}

// Normalize asks the oracle to canonicalize rec and then applies the local
// pass. Any oracle or parse failure falls back to rec itself; the returned
// error reports that fallback and never means the result is unusable.
func (n *Normalizer) Normalize(ctx context.Context, rec model.ExtractionRecord) (model.NormalizedRecord, error) {
	if n.oracle == nil {
		return Finalize(rec, rec), nil
	}

	normalized, err := n.askOracle(ctx, rec)
	if err != nil {
		n.logger.Warn("normalization failed, keeping raw record",
			"source", rec.SourcePath,
			"error", err)
		return Finalize(rec, rec), err
	}
	return Finalize(normalized, rec), nil
}

func (n *Normalizer) askOracle(ctx context.Context, rec model.ExtractionRecord) (model.ExtractionRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return model.ExtractionRecord{}, fmt.Errorf("failed to encode record: %w", err)
	}

	reply, err := n.oracle.Complete(ctx, llm.NormalizationRequest(string(payload)))
	if err != nil {
		return model.ExtractionRecord{}, err
	}

	obj, err := llm.ExtractFencedJSON(reply)
	if err != nil {
		return model.ExtractionRecord{}, err
	}
	return Coerce(obj, rec.SourcePath)
}

// Finalize builds the normalized record from the oracle's normalized
// candidate, falling back field by field to raw so that a value present in
// raw never disappears. Dates are then forced into TimestampLayout where
// they can be parsed and the amount into "<CURRENCY> <value>". Missing
// values end up as empty strings and item as a possibly empty list.
func Finalize(candidate, raw model.ExtractionRecord) model.NormalizedRecord {
	merged := candidate
	for _, name := range model.FieldNames {
		if name == model.FieldItem {
			continue
		}
		if v, ok := merged.Value(name); ok && v != "" {
			continue
		}
		if v, ok := raw.Value(name); ok {
			*merged.Scalar(name) = model.StringPtr(v)
		}
	}
	if len(merged.Item) == 0 {
		merged.Item = raw.Item
	}
	merged.SourcePath = raw.SourcePath

	out := model.FromExtraction(merged)
	for _, name := range model.DateFields {
		field := out.Scalar(name)
		if canonical, ok := CanonicalDate(*field); ok {
			*field = canonical
		}
	}
	out.Amount = normalizeAmount(out.Amount)
	return out
}

// normalizeAmount canonicalizes the amount in s. Surrounding text such as a
// "Total:" label is dropped when s holds exactly one currency amount; the
// raw record keeps the span as extracted.
func normalizeAmount(s string) string {
	if canonical := CanonicalAmount(s); canonical != s {
		return canonical
	}
	if span, ok := soleAmount(s); ok {
		return CanonicalAmount(span)
	}
	return s
}
