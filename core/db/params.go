package db

import (
	"strconv"
	"strings"
)

// placeholder is one $N occurrence in a statement; start/end are byte offsets.
type placeholder struct {
	start, end int
	index      int
}

// syntax selects the lexical rules scanPlaceholders applies.
type syntax struct {
	// backslashEscapes makes \ escape the next byte inside quotes (MySQL).
	backslashEscapes bool
	// dollarQuotes enables PostgreSQL $tag$ bodies.
	dollarQuotes bool
	// identifierDollar treats a $ that follows an identifier character as
	// part of the identifier, as in a$1 or a$b$.
	identifierDollar bool
}

var (
	ansiSyntax  = syntax{dollarQuotes: true, identifierDollar: true}
	mysqlSyntax = syntax{backslashEscapes: true, identifierDollar: true}
	redisSyntax = syntax{}
)

// scanPlaceholders finds every positional $N outside string literals,
// quoted identifiers, comments and dollar-quoted bodies.
func scanPlaceholders(query string, syn syntax) []placeholder {
	if !strings.Contains(query, "$") {
		return nil
	}

	var (
		found          []placeholder
		inSingleQuote  bool
		inDoubleQuote  bool
		inBacktick     bool
		inLineComment  bool
		inBlockComment bool
		dollarQuoteTag string
	)

	for i := 0; i < len(query); i++ {
		ch := query[i]

		switch {
		case dollarQuoteTag != "":
			if strings.HasPrefix(query[i:], dollarQuoteTag) {
				i += len(dollarQuoteTag) - 1
				dollarQuoteTag = ""
			}
			continue
		case inLineComment:
			if ch == '\n' {
				inLineComment = false
			}
			continue
		case inBlockComment:
			if ch == '*' && i+1 < len(query) && query[i+1] == '/' {
				i++
				inBlockComment = false
			}
			continue
		case inSingleQuote:
			if ch == '\\' && syn.backslashEscapes {
				i++
				continue
			}
			if ch == '\'' {
				if i+1 < len(query) && query[i+1] == '\'' {
					i++
				} else {
					inSingleQuote = false
				}
			}
			continue
		case inDoubleQuote:
			if ch == '\\' && syn.backslashEscapes {
				i++
				continue
			}
			if ch == '"' {
				if i+1 < len(query) && query[i+1] == '"' {
					i++
				} else {
					inDoubleQuote = false
				}
			}
			continue
		case inBacktick:
			if ch == '`' {
				inBacktick = false
			}
			continue
		}

		switch ch {
		case '\'':
			inSingleQuote = true
		case '"':
			inDoubleQuote = true
		case '`':
			inBacktick = true
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				inLineComment = true
				i++
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				inBlockComment = true
				i++
			}
		case '$':
			if syn.identifierDollar && i > 0 && isIdentByte(query[i-1]) {
				continue
			}
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, err := strconv.Atoi(query[i+1 : j])
				if err != nil {
					n = -1
				}
				found = append(found, placeholder{start: i, end: j, index: n})
				i = j - 1
				continue
			}
			if !syn.dollarQuotes {
				continue
			}
			if tag := parseDollarQuoteTag(query[i:]); tag != "" {
				dollarQuoteTag = tag
				i += len(tag) - 1
			}
		}
	}
	return found
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseDollarQuoteTag returns the $tag$ opening a dollar-quoted body, if any.
func parseDollarQuoteTag(s string) string {
	if len(s) < 2 || s[0] != '$' {
		return ""
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if ch == '$' {
			return s[:i+1]
		}
		if (ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(i > 1 && ch >= '0' && ch <= '9') ||
			ch == '_' {
			continue
		}
		return ""
	}
	return ""
}

// PlaceholderCount returns the number of arguments query expects: the highest
// $N it references. Gaps and $0 are reported as an error.
func PlaceholderCount(query string) (int, error) {
	return countPlaceholders(scanPlaceholders(query, ansiSyntax))
}

func countPlaceholders(found []placeholder) (int, error) {
	highest := 0
	seen := make(map[int]bool, len(found))
	for _, p := range found {
		if p.index < 1 {
			return 0, errorf(ErrParamMismatch, "bind", "invalid placeholder at offset %d", p.start)
		}
		seen[p.index] = true
		if p.index > highest {
			highest = p.index
		}
	}
	for n := 1; n <= highest; n++ {
		if !seen[n] {
			return 0, errorf(ErrParamMismatch, "bind", "placeholder $%d is never referenced (highest is $%d)", n, highest)
		}
	}
	return highest, nil
}

// CheckParams fails with ErrParamMismatch unless query expects exactly n args.
func CheckParams(query string, n int) error {
	return checkParams(query, n, ansiSyntax)
}

func checkParams(query string, n int, syn syntax) error {
	want, err := countPlaceholders(scanPlaceholders(query, syn))
	if err != nil {
		return err
	}
	if want != n {
		return errorf(ErrParamMismatch, "bind", "statement expects %d argument(s), got %d", want, n)
	}
	return nil
}

// rebindQuestion rewrites $N placeholders to ? and returns the arguments in
// occurrence order, for drivers that only understand anonymous markers.
func rebindQuestion(query string, args []any, syn syntax) (string, []any) {
	found := scanPlaceholders(query, syn)
	if len(found) == 0 {
		return query, args
	}
	var out strings.Builder
	out.Grow(len(query))
	ordered := make([]any, 0, len(found))
	last := 0
	for _, p := range found {
		out.WriteString(query[last:p.start])
		out.WriteByte('?')
		ordered = append(ordered, args[p.index-1])
		last = p.end
	}
	out.WriteString(query[last:])
	return out.String(), ordered
}

// rebindNumbered rewrites $N to ?N, SQLite's numbered parameter syntax.
func rebindNumbered(query string) string {
	found := scanPlaceholders(query, ansiSyntax)
	if len(found) == 0 {
		return query
	}
	var out strings.Builder
	out.Grow(len(query))
	last := 0
	for _, p := range found {
		out.WriteString(query[last:p.start])
		out.WriteByte('?')
		out.WriteString(strconv.Itoa(p.index))
		last = p.end
	}
	out.WriteString(query[last:])
	return out.String()
}
