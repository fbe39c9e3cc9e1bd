package decode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/Veraticus/serena/internal/model"
)

const (
	unknownHeader = "Unknown"
	noSubject     = "No Subject"
)

// MailDecoder stages each .eml file as one unit named eml_<n>.txt.
type MailDecoder struct {
	logger *slog.Logger
}

// NewMailDecoder creates a mail decoder.
func NewMailDecoder(logger *slog.Logger) *MailDecoder {
	return &MailDecoder{logger: logger}
}

// Name implements Decoder.
func (d *MailDecoder) Name() string { return "mail" }

// Decode implements Decoder. The counter n advances once per .eml file in
// name order, whether or not that file decodes. It only names new units: a
// mail whose text is already staged keeps the file it was staged under.
func (d *MailDecoder) Decode(ctx context.Context, srcDir, dstDir string) (Result, error) {
	result := Result{Stats: model.StageStats{Stage: model.StageDecode}}

	files, err := listFiles(srcDir, ".eml")
	if err != nil || len(files) == 0 {
		return result, err
	}
	area, err := prepareStaging(dstDir)
	if err != nil {
		return result, err
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Stats.Processed++

		text, err := renderMail(file)
		if err != nil {
			result.Stats.Failed++
			logFailure(d.logger, d.Name(), file, err)
			continue
		}

		path, dup, err := area.stage(fmt.Sprintf("eml_%d.txt", i+1), []byte(text))
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
			Body:       text,
			Provenance: model.Provenance{ArchivePath: file},
		})
		d.logger.Debug("staged mail", "file", file, "unit", path)
	}

	return result, nil
}

// renderMail reads one .eml file and formats its headers and text parts.
func renderMail(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return "", fmt.Errorf("failed to open mail: %w", err)
	}
	defer func() { _ = f.Close() }()

	env, err := enmime.ReadEnvelope(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse mail: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\n", headerOr(env, "From", unknownHeader))
	fmt.Fprintf(&sb, "To: %s\n", headerOr(env, "To", unknownHeader))
	fmt.Fprintf(&sb, "Subject: %s\n", headerOr(env, "Subject", noSubject))
	fmt.Fprintf(&sb, "Date: %s\n\n", headerOr(env, "Date", unknownHeader))
	sb.WriteString("Body:\n")
	sb.WriteString(mailBody(env.Root))

	return sb.String(), nil
}

func headerOr(env *enmime.Envelope, name, fallback string) string {
	if v := strings.TrimSpace(env.GetHeader(name)); v != "" {
		return v
	}
	return fallback
}

// mailBody concatenates the text/plain and text/html parts in tree order.
// enmime has already converted each part from its declared charset to UTF-8.
// A single-part message contributes its content whatever its type.
func mailBody(root *enmime.Part) string {
	if root == nil {
		return ""
	}
	if root.FirstChild == nil {
		return string(root.Content)
	}

	var sb strings.Builder
	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		for ; p != nil; p = p.NextSibling {
			switch strings.ToLower(p.ContentType) {
			case "text/plain", "text/html":
				sb.Write(p.Content)
			}
			walk(p.FirstChild)
		}
	}
	walk(root)
	return sb.String()
}
