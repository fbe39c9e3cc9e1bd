package decode

import (
	"regexp"
	"strings"
)

// sessionDelimiter matches a chat export's date banner, e.g.
// "--------------- Monday, March 4, 2024 ---------------".
var sessionDelimiter = regexp.MustCompile(`-{15,}\s*[A-Za-z]+,\s*[A-Za-z]+\s*\d{1,2},\s*\d{4}\s*-{15,}`)

// Section is one piece of a transcript. Index is the 1-based position of the
// section among everything the delimiters produced, including empty sections
// that were dropped, so indexes can have gaps. Index 0 marks an unsplit
// transcript whose Text is the input unchanged.
type Section struct {
	Index int
	Text  string
}

// SplitSessions splits content on session date banners. N banners yield up
// to N+1 trimmed, non-empty sections. Content without a banner yields one
// section holding the original content byte for byte.
func SplitSessions(content string) []Section {
	pieces := sessionDelimiter.Split(content, -1)
	if len(pieces) <= 1 {
		return []Section{{Index: 0, Text: content}}
	}

	sections := make([]Section, 0, len(pieces))
	for i, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		sections = append(sections, Section{Index: i + 1, Text: piece})
	}
	return sections
}
