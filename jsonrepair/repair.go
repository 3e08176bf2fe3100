// Package jsonrepair recovers JSON objects from free-form model output.
//
// Parse tries four strategies in order, each stricter input first:
// a direct parse, fenced or labeled code blocks, balanced-brace scanning,
// and progressive textual repair. Every strategy is a pure function and
// returns nil when it cannot produce an object.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Strategy turns text into a JSON object, or returns nil.
type Strategy func(text string) map[string]any

// Named strategies in cascade order.
var strategies = []struct {
	name string
	fn   Strategy
}{
	{"direct", Direct},
	{"code_block", FromCodeBlock},
	{"balanced_braces", BalancedBraces},
	{"repair", Repair},
}

// ScanBudget bounds the total bytes the scanning strategies examine
// across all candidates. Every opening brace is a candidate until the
// budget is spent.
const ScanBudget = 4 << 20

// Parse returns the first JSON object any strategy recovers from text,
// or nil. It never panics.
func Parse(text string) map[string]any {
	v, _ := ParseWithStrategy(text)
	return v
}

// ParseWithStrategy is Parse but also reports the name of the strategy
// that succeeded, or "" when none did.
func ParseWithStrategy(text string) (v map[string]any, strategy string) {
	defer func() {
		if r := recover(); r != nil {
			v, strategy = nil, ""
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ""
	}
	for _, s := range strategies {
		if v := s.fn(text); v != nil {
			return v, s.name
		}
	}
	return nil, ""
}

// Direct strictly parses the trimmed text as a JSON object.
func Direct(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" || text[0] != '{' {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil
	}
	return v
}

var codeBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?is)```json\\s*\\n(.*?)\\n```"),
	regexp.MustCompile("(?is)```\\s*\\n(.*?)\\n```"),
	regexp.MustCompile("(?is)```json(.*?)```"),
	regexp.MustCompile("(?is)```(.*?)```"),
	regexp.MustCompile(`(?is)(?:JSON|Response|Output|Result)\s*:\s*(\{.*\})`),
}

// FromCodeBlock parses the body of the first fenced or labeled block that
// holds a valid JSON object.
func FromCodeBlock(text string) map[string]any {
	for _, re := range codeBlockPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v := Direct(m[1]); v != nil {
				return v
			}
		}
	}
	return nil
}

// BalancedBraces scans from every opening brace to its matching close,
// ignoring braces inside string literals, and parses each candidate.
func BalancedBraces(text string) map[string]any {
	budget := ScanBudget
	for i := 0; i < len(text) && budget > 0; i++ {
		if text[i] != '{' {
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			budget -= len(text) - i
			continue
		}
		budget -= end + 1 - i
		if v := Direct(text[i : end+1]); v != nil {
			return v
		}
	}
	return nil
}

// matchBrace returns the index of the brace closing the one at start,
// or -1 if the text ends first.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(text); j++ {
		c := text[j]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

var prefaces = []string{
	"Here is the JSON:",
	"The extracted information is:",
	"Based on the content:",
	"JSON:",
	"Response:",
	"Output:",
	"Result:",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Repair applies increasingly aggressive textual fixes to each candidate
// running from an opening brace to the last closing brace, parsing after
// every step. Fixes are applied in order: trailing comma removal, quote
// normalization, key quoting, whitespace collapsing and finally closing
// any object or array left open by truncated output.
func Repair(text string) map[string]any {
	text = stripPrefaces(strings.TrimSpace(text))
	last := strings.LastIndexByte(text, '}')

	budget := ScanBudget
	for i := 0; i < len(text) && budget > 0; i++ {
		if text[i] != '{' {
			continue
		}
		candidate := text[i:]
		if last > i {
			candidate = text[i : last+1]
		}
		budget -= len(candidate)
		if v := repairCandidate(candidate); v != nil {
			return v
		}
	}
	return nil
}

func repairCandidate(candidate string) map[string]any {
	steps := []func(string) string{
		removeTrailingCommas,
		normalizeQuotes,
		quoteKeys,
		collapseWhitespace,
		closeOpen,
	}
	s := candidate
	for _, step := range steps {
		s = step(s)
		if v := Direct(s); v != nil {
			return v
		}
	}
	return nil
}

func stripPrefaces(text string) string {
	for {
		trimmed := text
		for _, p := range prefaces {
			if len(trimmed) >= len(p) && strings.EqualFold(trimmed[:len(p)], p) {
				trimmed = strings.TrimSpace(trimmed[len(p):])
			}
		}
		if trimmed == text {
			return text
		}
		text = trimmed
	}
}

func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// removeTrailingCommas drops commas that directly precede a closing brace
// or bracket outside string literals.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	scan(s, func(i int, c byte, inString bool) {
		if !inString && c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				return
			}
		}
		b.WriteByte(c)
	})
	return b.String()
}

// normalizeQuotes rewrites single-quoted strings as double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle, escaped := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			if inSingle && c == '\'' {
				// \' inside a single-quoted string needs no escape once
				// the delimiter is a double quote.
				str := b.String()
				b.Reset()
				b.WriteString(str[:len(str)-1])
			}
			b.WriteByte(c)
		case c == '\\' && (inDouble || inSingle):
			escaped = true
			b.WriteByte(c)
		case inDouble:
			if c == '"' {
				inDouble = false
			}
			b.WriteByte(c)
		case inSingle:
			switch c {
			case '\'':
				inSingle = false
				b.WriteByte('"')
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		case c == '\'':
			inSingle = true
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// quoteKeys wraps bare identifiers in object-key position in double quotes.
func quoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString, escaped := false, false
	expectKey := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			expectKey = false
			b.WriteByte(c)
		case c == '{' || c == ',':
			expectKey = true
			b.WriteByte(c)
		case isSpace(c):
			b.WriteByte(c)
		case expectKey && isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			i = j - 1
			expectKey = false
		default:
			expectKey = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

// closeOpen terminates an unfinished string and appends the closers of
// any objects and arrays still open at the end of s.
func closeOpen(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 && !inString {
		return s
	}
	out := s
	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += " null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return removeTrailingCommas(out)
}

// scan calls fn for every byte of s with the string-literal state that
// applies to it.
func scan(s string, fn func(i int, c byte, inString bool)) {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		wasIn := inString
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		} else if c == '"' {
			inString = true
		}
		fn(i, c, wasIn)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
