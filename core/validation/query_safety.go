package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Statements allowed in read-only mode
var allowedCommands = map[string]bool{
	"SELECT": true,
	"WITH":   true, // CTE, checked again for embedded writes below
	"VALUES": true,
	"TABLE":  true,
	"SHOW":   true,
}

// Forbidden SQL commands that modify data or schema
var forbiddenCommands = []string{
	"DELETE",
	"DROP",
	"TRUNCATE",
	"INSERT",
	"UPDATE",
	"ALTER",
	"CREATE",
	"GRANT",
	"REVOKE",
	"EXECUTE",
	"EXEC",
	"CALL",
	"MERGE",
	"COPY",
	"REPLACE",
	"ATTACH",
	"VACUUM",
}

var (
	whitespace        = regexp.MustCompile(`\s+`)
	forbiddenPatterns = compileForbidden(forbiddenCommands)
)

func compileForbidden(commands []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(commands))
	for _, c := range commands {
		patterns[c] = regexp.MustCompile(`\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return patterns
}

// ValidateQuery checks that query is a single read-only SQL statement.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	statements := splitStatements(stripComments(query))
	if len(statements) > 1 {
		return fmt.Errorf("only a single SQL statement is allowed")
	}
	if len(statements) == 0 {
		return fmt.Errorf("query cannot be empty (only comments found)")
	}

	normalized := normalizeSQL(statements[0])
	command := FirstCommand(normalized)
	if command == "" {
		return fmt.Errorf("unable to identify SQL command (security: unknown command)")
	}

	if !allowedCommands[command] {
		if _, forbidden := forbiddenPatterns[command]; forbidden {
			return fmt.Errorf("forbidden SQL command detected: %s (read-only mode)", command)
		}
		return fmt.Errorf("unsupported SQL command: %s (only read-only statements are allowed)", command)
	}

	// catches writes hidden in CTEs and subqueries
	return scanForForbiddenCommands(normalized)
}

// splitStatements splits a comment-free query on semicolons outside literals.
func splitStatements(query string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      byte
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == quote {
				if i+1 < len(query) && query[i+1] == quote {
					current.WriteByte(c)
					i++
				} else {
					quote = 0
				}
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			current.WriteByte(c)
		case c == ';':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return statements
}

// normalizeSQL upper-cases the statement and collapses whitespace.
func normalizeSQL(query string) string {
	return whitespace.ReplaceAllString(strings.ToUpper(strings.TrimSpace(query)), " ")
}

// scanForForbiddenCommands looks for write keywords outside string literals,
// so SELECT 'DELETE FROM users' stays allowed.
func scanForForbiddenCommands(normalized string) error {
	bare := removeStringLiterals(normalized)
	for _, c := range forbiddenCommands {
		if forbiddenPatterns[c].MatchString(bare) {
			return fmt.Errorf("forbidden SQL command detected: %s (security: command found in query)", c)
		}
	}
	return nil
}

// removeStringLiterals blanks out quoted strings and identifiers, keeping
// word boundaries intact.
func removeStringLiterals(query string) string {
	var (
		out   strings.Builder
		quote byte
	)
	out.Grow(len(query))

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote && i+1 < len(query) && query[i+1] == quote {
				out.WriteString("  ")
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			out.WriteByte(' ')
		case c == '\'' || c == '"':
			quote = c
			out.WriteByte(' ')
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// Redis commands that never write.
var readOnlyRedisCommands = map[string]bool{
	"GET": true, "MGET": true, "STRLEN": true, "GETRANGE": true,
	"EXISTS": true, "TYPE": true, "TTL": true, "PTTL": true, "KEYS": true, "SCAN": true, "DBSIZE": true,
	"HGET": true, "HMGET": true, "HGETALL": true, "HKEYS": true, "HVALS": true, "HLEN": true, "HEXISTS": true,
	"LRANGE": true, "LLEN": true, "LINDEX": true,
	"SMEMBERS": true, "SCARD": true, "SISMEMBER": true,
	"ZRANGE": true, "ZCARD": true, "ZSCORE": true, "ZRANK": true,
	"PING": true, "INFO": true, "ECHO": true,
}

// ValidateCommand checks that a Redis command line is read-only.
func ValidateCommand(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("command cannot be empty")
	}
	name := strings.ToUpper(fields[0])
	if !readOnlyRedisCommands[name] {
		return fmt.Errorf("redis command %s is not allowed in read-only mode", name)
	}
	return nil
}
