package db

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbz-tec/dbport/core/config"
)

func startRedis(t *testing.T) (*miniredis.Miniredis, config.Config) {
	t.Helper()
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return mr, config.Config{Host: host, Port: p}
}

func TestRedisExec(t *testing.T) {
	ctx := context.Background()
	mr, cfg := startRedis(t)

	h, err := Connect("redis", cfg)
	require.NoError(t, err)
	defer h.Close()

	rs, err := h.ExecParams(ctx, "SET $1 $2", "greeting", "hello world")
	require.NoError(t, err)
	front, _ := rs.Front()
	status, _ := Get[string](front, 0)
	assert.Equal(t, "OK", status)

	got, err := mr.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	rs, err = h.Exec(ctx, "GET greeting")
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, rs.Columns())
	front, _ = rs.Front()
	v, err := GetNamed[string](front, "value")
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)

	rs, err = h.Exec(ctx, "INCRBY counter 5")
	require.NoError(t, err)
	assert.EqualValues(t, 5, rs.AffectedRows())
	front, _ = rs.Front()
	n, err := Get[int](front, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	rs, err = h.Exec(ctx, "GET missing")
	require.NoError(t, err)
	front, _ = rs.Front()
	assert.True(t, front.IsNull(0))

	_, err = h.Exec(ctx, `RPUSH list a "b c" 'd'`)
	require.NoError(t, err)
	rs, err = h.Exec(ctx, "LRANGE list 0 -1")
	require.NoError(t, err)
	items, err := Column[string](rs, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b c", "d"}, items)
}

func TestRedisErrors(t *testing.T) {
	ctx := context.Background()
	_, cfg := startRedis(t)

	h, err := Connect("redis", cfg)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Exec(ctx, "NOSUCHCOMMAND x")
	assert.ErrorIs(t, err, ErrQuery)

	_, err = h.ExecParams(ctx, "GET $1")
	assert.ErrorIs(t, err, ErrParamMismatch)

	_, err = h.Exec(ctx, `SET k "unterminated`)
	assert.ErrorIs(t, err, ErrQuery)

	_, err = h.Exec(ctx, "   ")
	assert.ErrorIs(t, err, ErrQuery)
}

func TestRedisTransaction(t *testing.T) {
	ctx := context.Background()
	mr, cfg := startRedis(t)

	h, err := Connect("redis", cfg)
	require.NoError(t, err)
	defer h.Close()

	tx, err := h.BeginTransaction(ctx)
	require.NoError(t, err)
	rs, err := tx.ExecParams(ctx, "SET $1 $2", "a", 1)
	require.NoError(t, err)
	assert.True(t, rs.Empty(), "queued commands have no reply yet")
	_, err = tx.Exec(ctx, "SET b 2")
	require.NoError(t, err)

	assert.False(t, mr.Exists("a"), "nothing is applied before commit")
	require.NoError(t, tx.Commit(ctx))
	assert.True(t, mr.Exists("a"))
	assert.True(t, mr.Exists("b"))

	func() {
		tx, err := h.BeginTransaction(ctx)
		require.NoError(t, err)
		defer tx.Close()
		_, err = tx.Exec(ctx, "SET c 3")
		require.NoError(t, err)
	}()
	assert.False(t, mr.Exists("c"), "dropped transaction discards queued commands")
}

func TestRedisTransactionReplies(t *testing.T) {
	ctx := context.Background()
	_, cfg := startRedis(t)

	h, err := Connect("redis", cfg)
	require.NoError(t, err)
	defer h.Close()

	tx, err := h.BeginTransaction(ctx)
	require.NoError(t, err)
	defer tx.Close()
	_, err = tx.Exec(ctx, "INCRBY counter 4")
	require.NoError(t, err)
	_, err = tx.ExecParams(ctx, "GET $1", "counter")
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "GET missing")
	require.NoError(t, err)

	replies, err := tx.Replies()
	require.NoError(t, err)
	assert.Nil(t, replies, "no replies before commit")

	require.NoError(t, tx.Commit(ctx))
	replies, err = tx.Replies()
	require.NoError(t, err)
	require.Len(t, replies, 3)

	assert.EqualValues(t, 4, replies[0].AffectedRows())
	n, err := Column[int](replies[0], 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, n)

	got, err := Column[string](replies[1], 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, got)

	front, err := replies[2].Front()
	require.NoError(t, err)
	assert.True(t, front.IsNull(0))
}

func TestRedisConnectFailure(t *testing.T) {
	_, err := Connect("redis", config.Config{Host: "127.0.0.1", Port: 1})
	assert.ErrorIs(t, err, ErrConnection)

	_, err = Connect("redis", config.Config{Database: "not-a-number"})
	assert.ErrorIs(t, err, ErrConnection)
}

func TestRedisSelectsDatabase(t *testing.T) {
	ctx := context.Background()
	mr, cfg := startRedis(t)
	cfg.Database = "3"

	h, err := Connect("redis", cfg)
	require.NoError(t, err)
	defer h.Close()
	assert.Contains(t, h.Description(), "/3")

	_, err = h.Exec(ctx, "SET k v")
	require.NoError(t, err)

	assert.True(t, mr.DB(3).Exists("k"))
	assert.False(t, mr.DB(0).Exists("k"))
}

func TestSplitCommand(t *testing.T) {
	tokens, err := splitCommand(`SET "a\"b" 'c d' e\n`)
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, `a"b`, tokens[1].text)
	assert.True(t, tokens[1].quoted)
	assert.Equal(t, "c d", tokens[2].text)
	assert.Equal(t, `e\n`, tokens[3].text)
	assert.False(t, tokens[3].quoted)
}

func TestBindCommand(t *testing.T) {
	args, err := bindCommand("HSET user:$1 name $2 literal '$1'", []any{7, "ada"})
	require.NoError(t, err)
	assert.Equal(t, []any{"HSET", "user:7", "name", "ada", "literal", "$1"}, args)
}

func TestReplyResult(t *testing.T) {
	rs := replyResult(map[any]any{"b": "2", "a": "1"})
	assert.Equal(t, []string{"key", "value"}, rs.Columns())
	keys, err := Column[string](rs, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	rs = replyResult([]any{"x", int64(2), nil, []any{"nested"}})
	assert.Equal(t, 4, rs.Len())
	row, _ := rs.Row(2)
	assert.True(t, row.IsNull(0))
	row, _ = rs.Row(3)
	s, _ := Get[string](row, 0)
	assert.Equal(t, `["nested"]`, s)

	rs = replyResult(3.5)
	front, _ := rs.Front()
	f, err := Get[float64](front, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)
}

func TestRedisQuote(t *testing.T) {
	r := NewRedis(config.Config{})
	assert.Equal(t, `"say \"hi\" \\o/"`, r.Quote(`say "hi" \o/`))
}
