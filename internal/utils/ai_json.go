package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON     = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey    = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	pythonLiteral  = regexp.MustCompile(`(:\s*)(True|False|None)(\s*[,}\]])`)
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	pythonLiterals = map[string]string{"True": "true", "False": "false", "None": "null"}
)

// ParseAIJSON decodes a JSON object from chat model output. It accepts:
// - pure JSON
// - JSON in a markdown code fence
// - JSON surrounded by prose
// - near-JSON with trailing commas, bare keys, single quotes or
//   Python literals (True, False, None)
func ParseAIJSON(input string, target interface{}) error {
	input = strings.TrimPrefix(strings.TrimSpace(input), "\ufeff")
	if input == "" {
		return fmt.Errorf("empty input")
	}

	for _, candidate := range jsonCandidates(input) {
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(repairJSON(candidate)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// jsonCandidates lists the substrings worth decoding, most specific first
func jsonCandidates(input string) []string {
	candidates := []string{input}
	if m := fencedJSON.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start := strings.Index(input, "{"); start >= 0 {
		candidates = append(candidates, extractBalanced(input[start:], '{', '}'))
	}
	return candidates
}

// extractBalanced returns the prefix of input up to the brace that closes
// the first one, ignoring braces inside strings
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range input {
		switch {
		case escape:
			escape = false
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}
	return ""
}

// repairJSON fixes the mistakes chat models commonly make in JSON output
func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = pythonLiteral.ReplaceAllStringFunc(s, func(m string) string {
		parts := pythonLiteral.FindStringSubmatch(m)
		return parts[1] + pythonLiterals[parts[2]] + parts[3]
	})
	s = fixSingleQuotes(s)
	return controlChars.ReplaceAllString(s, "")
}

// fixSingleQuotes turns single-quoted strings into double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func fixSingleQuotes(input string) string {
	var b strings.Builder
	inDouble := false
	inSingle := false
	escape := false

	for _, ch := range input {
		switch {
		case escape:
			escape = false
		case ch == '\\':
			escape = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '"' && inSingle:
			b.WriteString(`\"`)
			continue
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteRune('"')
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
