package runner

import (
	"fmt"
	"strings"

	"github.com/roach88/plansql/internal/querysql"
)

// BindError reports a placeholder with no value.
type BindError struct {
	Name   string
	Offset int
}

func (e *BindError) Error() string {
	return fmt.Sprintf("no value for parameter @%s at offset %d", e.Name, e.Offset)
}

// Bind rewrites the generator's named placeholders (@name) to positional
// placeholders (?) and returns the arguments in text order. Generated
// parameters come from params; placeholders the plan referenced by name
// (ParamRef) are looked up in external.
//
// Quoted strings, backquoted identifiers, comments and @@system variables
// are copied unchanged. So is every use of a user variable assigned with
// := in the text (as in a defining query numbering its rows), unless a
// generated parameter has the same name. A placeholder used twice is bound
// twice.
func Bind(text string, params []querysql.Parameter, external map[string]any) (string, []any, error) {
	values := make(map[string]any, len(params)+len(external))
	for k, v := range external {
		values[k] = v
	}
	generated := make(map[string]bool, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
		generated[p.Name] = true
	}

	userVars := make(map[string]bool)
	scanSQL(text, func(name string, start, end int) {
		if strings.HasPrefix(strings.TrimLeft(text[end:], " \t\r\n"), ":=") && !generated[name] {
			userVars[name] = true
		}
	})

	var (
		b    strings.Builder
		args []any
		err  error
		last int
	)
	b.Grow(len(text))
	scanSQL(text, func(name string, start, end int) {
		if err != nil || userVars[name] {
			return
		}
		v, ok := values[name]
		if !ok {
			err = &BindError{Name: name, Offset: start}
			return
		}
		b.WriteString(text[last:start])
		b.WriteByte('?')
		args = append(args, v)
		last = end
	})
	if err != nil {
		return "", nil, err
	}
	b.WriteString(text[last:])
	return b.String(), args, nil
}

// scanSQL calls fn for each @name outside quoted runs and comments, with
// the offsets of the @ and of the byte past the name. @@system variables
// are skipped.
func scanSQL(text string, fn func(name string, start, end int)) {
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(text, i)

		case c == '#':
			i = skipLine(text, i)

		case c == '-' && isLineComment(text, i):
			i = skipLine(text, i)

		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return
			}
			i += end + 4

		case c == '@' && i+1 < len(text) && text[i+1] == '@':
			i += 2
			for i < len(text) && (isNameByte(text[i]) || text[i] == '.') {
				i++
			}

		case c == '@':
			end := i + 1
			for end < len(text) && isNameByte(text[end]) {
				end++
			}
			if end > i+1 {
				fn(text[i+1:end], i, end)
			}
			i = end

		default:
			i++
		}
	}
}

// isLineComment reports whether "--" at i starts a comment. MySQL needs
// whitespace or the end of text after the dashes.
func isLineComment(text string, i int) bool {
	if i+1 >= len(text) || text[i+1] != '-' {
		return false
	}
	if i+2 == len(text) {
		return true
	}
	switch text[i+2] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// skipLine returns the offset of the newline ending the line at i, or the
// end of text.
func skipLine(text string, i int) int {
	if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
		return i + nl
	}
	return len(text)
}

// skipQuoted returns the offset just past the quoted run starting at i.
// Doubled quotes and backslash escapes stay inside the run.
func skipQuoted(text string, i int) int {
	q := text[i]
	j := i + 1
	for j < len(text) {
		switch text[j] {
		case '\\':
			if q != '`' {
				j += 2
				continue
			}
		case q:
			if j+1 < len(text) && text[j+1] == q {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(text)
}

func isNameByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
