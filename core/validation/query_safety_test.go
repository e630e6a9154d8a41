package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		errMsg string // empty means the query must pass
	}{
		// allowed
		{name: "plain SELECT", query: "SELECT * FROM users"},
		{name: "SELECT with JOIN", query: "SELECT u.id, o.total FROM users u JOIN orders o ON u.id = o.user_id"},
		{name: "CTE", query: "WITH active AS (SELECT * FROM users WHERE active = true) SELECT * FROM active"},
		{name: "subquery", query: "SELECT * FROM (SELECT id FROM users) AS sub"},
		{name: "trailing semicolon", query: "SELECT * FROM users;"},
		{name: "VALUES", query: "VALUES (1), (2)"},
		{name: "SHOW", query: "SHOW TABLES"},
		{name: "keyword inside literal", query: "SELECT 'DELETE FROM users' AS cmd"},
		{name: "semicolon inside literal", query: "SELECT 'a; DELETE' AS cmd FROM users"},
		{name: "escaped quote", query: "SELECT 'O''Brien' AS name"},
		{name: "keyword inside quoted identifier", query: `SELECT "DELETE FROM users" AS cmd FROM users`},
		{name: "keyword as column prefix", query: "SELECT delete_flag, last_update FROM users"},
		{name: "line comment", query: "SELECT * FROM users -- DELETE FROM users"},
		{name: "block comment", query: "SELECT * FROM users /* DELETE FROM users */"},
		{name: "comment after semicolon", query: "SELECT * FROM users; -- DELETE FROM users;"},
		{name: "UNION", query: "SELECT 1 UNION SELECT 2"},
		{name: "extra whitespace", query: "   SELECT     *     FROM     users   "},

		// rejected
		{name: "empty", query: "", errMsg: "empty"},
		{name: "whitespace only", query: "   \n\t  ", errMsg: "empty"},
		{name: "comment only", query: "-- nothing", errMsg: "empty"},
		{name: "DELETE", query: "DELETE FROM users", errMsg: "DELETE"},
		{name: "lower-case delete", query: "delete from users", errMsg: "DELETE"},
		{name: "mixed-case delete", query: "DeLeTe FrOm users", errMsg: "DELETE"},
		{name: "DROP", query: "DROP TABLE users", errMsg: "DROP"},
		{name: "INSERT", query: "INSERT INTO users (name) VALUES ('x')", errMsg: "INSERT"},
		{name: "UPDATE", query: "UPDATE users SET name = 'x'", errMsg: "UPDATE"},
		{name: "CREATE", query: "CREATE TABLE t (id INT)", errMsg: "CREATE"},
		{name: "CALL", query: "CALL refresh()", errMsg: "CALL"},
		{name: "two statements", query: "SELECT 1; DELETE FROM users", errMsg: "only a single SQL statement"},
		{name: "three selects", query: "SELECT 1; SELECT 2; SELECT 3", errMsg: "only a single SQL statement"},
		{name: "write in CTE", query: "WITH bad AS (DELETE FROM users RETURNING *) SELECT * FROM bad", errMsg: "DELETE"},
		{name: "write in subquery", query: "SELECT * FROM (DELETE FROM users RETURNING *) AS sub", errMsg: "DELETE"},
		{name: "unknown command", query: "UNKNOWN_COMMAND users", errMsg: "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateQuery_ComplexQueries(t *testing.T) {
	queries := map[string]string{
		"multi-join": `
			SELECT u.id, u.name, o.total, p.name AS product_name
			FROM users u
			LEFT JOIN orders o ON u.id = o.user_id
			LEFT JOIN order_items oi ON o.id = oi.order_id
			LEFT JOIN products p ON oi.product_id = p.id
			WHERE u.active = true
			ORDER BY o.total DESC`,
		"nested CTE": `
			WITH
				active_users AS (SELECT * FROM users WHERE active = true),
				user_orders AS (
					SELECT u.id, COUNT(o.id) AS order_count
					FROM active_users u
					LEFT JOIN orders o ON u.id = o.user_id
					GROUP BY u.id
				)
			SELECT * FROM user_orders WHERE order_count > 0`,
		"window function": `
			SELECT id, ROW_NUMBER() OVER (PARTITION BY category ORDER BY price) AS rn
			FROM products`,
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidateQuery(q))
		})
	}
}

func TestValidateCommand(t *testing.T) {
	assert.NoError(t, ValidateCommand("GET user:1"))
	assert.NoError(t, ValidateCommand("hgetall session"))

	err := ValidateCommand("SET user:1 x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SET")

	assert.Error(t, ValidateCommand("   "))
}
