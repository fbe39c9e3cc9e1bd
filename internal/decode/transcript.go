package decode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Veraticus/serena/internal/model"
)

// TranscriptDecoder splits messaging-app chat exports into per-session units.
type TranscriptDecoder struct {
	logger *slog.Logger
}

// NewTranscriptDecoder creates a transcript decoder.
func NewTranscriptDecoder(logger *slog.Logger) *TranscriptDecoder {
	return &TranscriptDecoder{logger: logger}
}

// Name implements Decoder.
func (d *TranscriptDecoder) Name() string { return "transcript" }

// Decode implements Decoder.
func (d *TranscriptDecoder) Decode(ctx context.Context, srcDir, dstDir string) (Result, error) {
	result := Result{Stats: model.StageStats{Stage: model.StageDecode}}

	files, err := listFiles(srcDir, ".txt")
	if err != nil || len(files) == 0 {
		return result, err
	}
	area, err := prepareStaging(dstDir)
	if err != nil {
		return result, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		raw, content, err := readTranscript(file)
		if err != nil {
			result.Stats.Processed++
			result.Stats.Failed++
			logFailure(d.logger, d.Name(), file, err)
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		for _, part := range SplitSessions(content) {
			result.Stats.Processed++

			body := part.Text
			name := fmt.Sprintf("%s_part%d.txt", stem, part.Index)
			if part.Index == 0 {
				// An unsplit transcript is copied as is, byte order mark included.
				body = string(raw)
				name = stem + "_original.txt"
			}

			path, dup, err := area.stage(name, []byte(body))
			if err != nil {
				result.Stats.Failed++
				logFailure(d.logger, d.Name(), file, err)
				continue
			}
			if dup {
				result.Stats.Skipped++
				continue
			}

			result.Stats.Succeeded++
			result.add(model.MessageUnit{
				ID:         path,
				Body:       body,
				Provenance: model.Provenance{ArchivePath: file, Session: part.Index},
			})
		}
	}

	return result, nil
}

// readTranscript returns the file's bytes and its content as UTF-8 text for
// banner matching. A UTF-8 or UTF-16 byte order mark selects the source
// encoding and is stripped from the text; without one the text is the bytes.
func readTranscript(path string) ([]byte, string, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return nil, "", fmt.Errorf("failed to read transcript: %w", err)
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode transcript: %w", err)
	}
	return raw, string(text), nil
}
