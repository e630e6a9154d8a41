package validation

import (
	"slices"
	"strings"
)

// rowCommands always produce a row set.
var rowCommands = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"TABLE":    true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
	"FETCH":    true,
}

// stripComments removes -- and /* */ comments outside string literals and
// quoted identifiers. Newlines ending line comments are kept.
func stripComments(query string) string {
	var (
		out        strings.Builder
		quote      byte
		inLine     bool
		inBlock    bool
		queryBytes = []byte(query)
	)
	out.Grow(len(query))

	for i := 0; i < len(queryBytes); i++ {
		c := queryBytes[i]
		switch {
		case inLine:
			if c == '\n' {
				inLine = false
				out.WriteByte(c)
			}
		case inBlock:
			if c == '*' && i+1 < len(queryBytes) && queryBytes[i+1] == '/' {
				inBlock = false
				i++
				out.WriteByte(' ')
			}
		case quote != 0:
			out.WriteByte(c)
			if c == quote {
				if i+1 < len(queryBytes) && queryBytes[i+1] == quote {
					out.WriteByte(c)
					i++
				} else {
					quote = 0
				}
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			out.WriteByte(c)
		case c == '-' && i+1 < len(queryBytes) && queryBytes[i+1] == '-':
			inLine = true
			i++
		case c == '/' && i+1 < len(queryBytes) && queryBytes[i+1] == '*':
			inBlock = true
			i++
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// FirstCommand returns the upper-cased leading keyword of query, ignoring
// comments, whitespace and opening parentheses. Empty when there is none.
func FirstCommand(query string) string {
	cleaned := strings.TrimLeft(stripComments(query), " \t\r\n(")
	end := strings.IndexFunc(cleaned, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	})
	if end == -1 {
		end = len(cleaned)
	}
	return strings.ToUpper(cleaned[:end])
}

// statementVerbs can start the statement that follows a WITH clause.
var statementVerbs = map[string]bool{
	"SELECT":  true,
	"VALUES":  true,
	"TABLE":   true,
	"INSERT":  true,
	"UPDATE":  true,
	"DELETE":  true,
	"REPLACE": true,
	"MERGE":   true,
}

// MainCommand is FirstCommand with a leading WITH clause skipped: it returns
// the verb of the statement the common table expressions feed.
func MainCommand(query string) string {
	cmd := FirstCommand(query)
	if cmd != "WITH" {
		return cmd
	}
	for _, w := range topLevelWords(cleanSQL(query)) {
		if statementVerbs[w] {
			return w
		}
	}
	return cmd
}

// ReturnsRows reports whether query produces a row set rather than only an
// affected-row count. DML with a top-level RETURNING clause counts as
// row-producing; a RETURNING inside a CTE body does not.
func ReturnsRows(query string) bool {
	cmd := MainCommand(query)
	if rowCommands[cmd] {
		return true
	}
	switch cmd {
	case "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE":
		return slices.Contains(topLevelWords(cleanSQL(query)), "RETURNING")
	}
	return false
}

// cleanSQL upper-cases query with comments removed and literals blanked.
func cleanSQL(query string) string {
	return removeStringLiterals(strings.ToUpper(stripComments(query)))
}

// topLevelWords lists the words of s outside any parentheses, in order.
func topLevelWords(s string) []string {
	var (
		words []string
		depth int
	)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			if depth == 0 {
				words = append(words, s[i:j])
			}
			i = j
		default:
			i++
		}
	}
	return words
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
