package db

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"erdgraph/internal/dialect"
	"erdgraph/internal/logger"
)

// Rewrite converts a query using :name parameters into one using the positional markers of style,
// returning the values in marker order. Text inside single- or double-quoted literals is copied
// verbatim, and the PostgreSQL cast operator (::) is never treated as a parameter.
//
// A name missing from params fails the rewrite with an *UnboundParameterError; a present key with a nil
// value binds NULL.
func Rewrite(query string, params map[string]any, style dialect.Placeholder) (string, []any, error) {
	var (
		out      strings.Builder
		args     []any
		missing  []string
		markers  int
		inSingle bool
		inDouble bool
	)
	out.Grow(len(query))

	for i := 0; i < len(query); {
		c, size := utf8.DecodeRuneInString(query[i:])
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ':' && strings.HasPrefix(query[i+1:], ":"):
			out.WriteString("::")
			i += 2
			continue
		case c == ':' && startsIdent(query[i+1:]):
			j := i + 1
			for j < len(query) {
				r, n := utf8.DecodeRuneInString(query[j:])
				if !isIdentPart(r) {
					break
				}
				j += n
			}
			name := query[i+1 : j]
			markers++
			out.WriteString(marker(style, markers))
			if v, ok := params[name]; ok {
				args = append(args, v)
			} else {
				logger.Warn("parameter %q not passed for query: %s", name, query)
				missing = append(missing, name)
			}
			i = j
			continue
		}
		// copy the original bytes; invalid UTF-8 decodes to RuneError and must pass through untouched
		out.WriteString(query[i : i+size])
		i += size
	}

	if len(missing) > 0 {
		return "", nil, &UnboundParameterError{Names: missing}
	}
	return out.String(), args, nil
}

func marker(style dialect.Placeholder, n int) string {
	switch style {
	case dialect.Dollar, dialect.AtP:
		return string(style) + strconv.Itoa(n)
	default:
		return string(dialect.Question)
	}
}

func startsIdent(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isIdentStart(r)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
