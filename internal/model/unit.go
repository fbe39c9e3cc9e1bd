package model

import (
	"crypto/sha256"
	"fmt"
	"os"
)

// Provenance links a message unit back to the archive file it came from.
// Session is the 1-based section index when a transcript was split, 0 otherwise.
type Provenance struct {
	ArchivePath string
	Session     int
}

// MessageUnit is one atomic piece of communication content.
type MessageUnit struct {
	Provenance Provenance
	ID         string // staged file path
	Body       string
}

// ContentHash returns a stable digest of the unit body.
func (u MessageUnit) ContentHash() string {
	return HashContent([]byte(u.Body))
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// LoadUnit reads a staged file into a message unit.
func LoadUnit(path string) (MessageUnit, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return MessageUnit{}, fmt.Errorf("failed to read unit %s: %w", path, err)
	}
	return MessageUnit{
		ID:   path,
		Body: string(data),
		Provenance: Provenance{
			ArchivePath: path,
		},
	}, nil
}
