package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/serena/internal/common"
)

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// ContainsWord reports whether word appears in text as a whole word,
// ignoring case.
func ContainsWord(text, word string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// cleanMarkdownWrapper removes a surrounding markdown code fence, if any.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		// Drop a language tag such as "json" on the opening fence line.
		if tag := strings.TrimSpace(content[:nl]); !strings.ContainsAny(tag, "{[") {
			content = content[nl+1:]
		}
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ExtractJSONObject pulls a JSON object out of a free-form reply. A fence
// around the object is tolerated, as are bare NULL/None literals.
func ExtractJSONObject(reply string) (json.RawMessage, error) {
	content := cleanMarkdownWrapper(reply)
	if content == "" {
		return nil, common.ErrEmptyResponse
	}

	candidates := []string{content}
	if start, end := strings.IndexByte(content, '{'), strings.LastIndexByte(content, '}'); start >= 0 && end > start {
		candidates = append(candidates, content[start:end+1])
	}

	var lastErr error
	for _, candidate := range candidates {
		fixed := replaceBareNulls(candidate)
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(fixed), &obj); err != nil {
			lastErr = err
			continue
		}
		return json.RawMessage(fixed), nil
	}

	return nil, fmt.Errorf("%w: %w", common.ErrNoJSON, lastErr)
}

// ExtractFencedJSON returns the JSON object inside the first fenced code
// block of reply.
func ExtractFencedJSON(reply string) (json.RawMessage, error) {
	match := fencedJSONPattern.FindStringSubmatch(reply)
	if match == nil {
		return nil, common.ErrNoFencedBlock
	}

	fixed := replaceBareNulls(match[1])
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fixed), &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNoJSON, err)
	}
	return json.RawMessage(fixed), nil
}

// replaceBareNulls rewrites NULL, Null and None tokens that appear outside
// string literals to JSON null.
func replaceBareNulls(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if replaced, n := bareNullAt(s, i); replaced {
			b.WriteString("null")
			i += n - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func bareNullAt(s string, i int) (bool, int) {
	for _, tok := range []string{"NULL", "Null", "None"} {
		if !strings.HasPrefix(s[i:], tok) {
			continue
		}
		if i > 0 && isIdentByte(s[i-1]) {
			return false, 0
		}
		if end := i + len(tok); end < len(s) && isIdentByte(s[end]) {
			return false, 0
		}
		return true, len(tok)
	}
	return false, 0
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
