package wilma

import (
	"errors"
	"strings"

	"github.com/titanous/json5"
)

var errNotAnObject = errors.New("literal is not an object")

// quoteNumericKeys wraps bare numeric object keys (`{0: "x"}`) in double
// quotes, everything inside strings and comments is copied untouched.
func quoteNumericKeys(src string) string {
	var out strings.Builder
	out.Grow(len(src) + 16)

	// last byte outside of whitespace, strings and comments
	var last byte
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			end := skipString(src, i)
			out.WriteString(src[i:end])
			last = c
			i = end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			out.WriteString(src[i : i+end])
			i += end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				out.WriteString(src[i:])
				return out.String()
			}
			out.WriteString(src[i : i+2+end+2])
			i += 2 + end + 2
			continue
		case isDigit(c) && (last == '{' || last == ','):
			end := i
			for end < len(src) && isDigit(src[end]) {
				end++
			}
			if nextSignificant(src, end) == ':' {
				out.WriteByte('"')
				out.WriteString(src[i:end])
				out.WriteByte('"')
			} else {
				out.WriteString(src[i:end])
			}
			last = src[end-1]
			i = end
			continue
		}

		out.WriteByte(c)
		if !isSpaceByte(c) {
			last = c
		}
		i++
	}
	return out.String()
}

// skipString returns the index right after the string literal starting at
// start, or len(src) when it is unterminated.
func skipString(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(src)
}

func nextSignificant(src string, from int) byte {
	for i := from; i < len(src); i++ {
		if !isSpaceByte(src[i]) {
			return src[i]
		}
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseObjectLiteral decodes a javascript object literal without
// evaluating it.
func parseObjectLiteral(src string) (map[string]any, error) {
	var out map[string]any
	err := json5.Unmarshal([]byte(quoteNumericKeys(src)), &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errNotAnObject
	}
	return out, nil
}
