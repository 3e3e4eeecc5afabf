package dataset

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// FormatList renders s as a list literal, e.g. ['AWS', 'Python'], with
// items sorted so repeated saves are byte-identical.
func FormatList(s model.LabelSet) string {
	items := s.Sorted()
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		for _, r := range item {
			switch r {
			case '\\', '\'':
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

var nullCells = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"[]":   true,
}

// ParseList reads a list cell. It accepts single- or double-quoted list
// literals and JSON arrays. Empty, null-like, and malformed cells yield nil.
func ParseList(cell string) []string {
	cell = strings.TrimSpace(cell)
	if nullCells[strings.ToLower(cell)] {
		return nil
	}
	if !strings.HasPrefix(cell, "[") || !strings.HasSuffix(cell, "]") {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(cell), &items); err == nil {
		return compact(items)
	}

	items, ok := parseLiteral(cell[1 : len(cell)-1])
	if !ok {
		return nil
	}
	return compact(items)
}

// parseLiteral splits the inside of a list literal into items. Quoted
// items honour backslash escapes; bare items are trimmed.
func parseLiteral(body string) ([]string, bool) {
	var items []string
	rs := []rune(body)
	i := 0
	for i < len(rs) {
		for i < len(rs) && (rs[i] == ' ' || rs[i] == '\t' || rs[i] == '\n' || rs[i] == '\r') {
			i++
		}
		if i >= len(rs) {
			break
		}

		var item strings.Builder
		switch q := rs[i]; q {
		case '\'', '"':
			i++
			closed := false
			for i < len(rs) {
				r := rs[i]
				if r == '\\' && i+1 < len(rs) {
					item.WriteRune(rs[i+1])
					i += 2
					continue
				}
				if r == q {
					closed = true
					i++
					break
				}
				item.WriteRune(r)
				i++
			}
			if !closed {
				return nil, false
			}
			for i < len(rs) && rs[i] == ' ' {
				i++
			}
			if i < len(rs) && rs[i] != ',' {
				return nil, false
			}
		default:
			for i < len(rs) && rs[i] != ',' {
				if rs[i] == '\'' || rs[i] == '"' {
					return nil, false
				}
				item.WriteRune(rs[i])
				i++
			}
		}
		items = append(items, strings.TrimSpace(item.String()))
		i++ // skip comma
	}
	return items, true
}

func compact(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
