package db

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fbz-tec/dbport/core/config"
	"github.com/fbz-tec/dbport/internal/logger"
)

const (
	DefaultRedisHost     = "localhost"
	DefaultRedisPort     = 6379
	DefaultRedisDatabase = "0"
)

// Redis is a Backend speaking inline commands such as "SET k v" or
// "HGETALL h". Positional $N tokens are bound to arguments.
type Redis struct {
	cfg         config.Config
	description string
	client      *redis.Client
}

func NewRedis(cfg config.Config) *Redis {
	cfg = cfg.WithDefaults(DefaultRedisHost, DefaultRedisPort, DefaultRedisDatabase, "")
	return &Redis{
		cfg:         cfg,
		description: fmt.Sprintf("Redis at %s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}
}

func (r *Redis) Type() string        { return TypeRedis }
func (r *Redis) Description() string { return r.description }
func (r *Redis) IsConnected() bool   { return r.client != nil }

func (r *Redis) options() (*redis.Options, error) {
	index, err := strconv.Atoi(r.cfg.Database)
	if err != nil || index < 0 {
		return nil, fmt.Errorf("invalid redis database index %q", r.cfg.Database)
	}
	opts := &redis.Options{
		Addr:         net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port)),
		Username:     r.cfg.Username,
		Password:     r.cfg.Password,
		DB:           index,
		PoolSize:     1,
		MinIdleConns: 1,
		DialTimeout:  connectTimeout,
	}
	switch strings.ToLower(r.cfg.SSLMode) {
	case "require", "verify-full", "verify-ca", "true":
		opts.TLSConfig = &tls.Config{ServerName: r.cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

func (r *Redis) Connect() error {
	if r.client != nil {
		return nil // already connected
	}

	opts, err := r.options()
	if err != nil {
		return newError(ErrConnection, "connect", err)
	}

	logger.Debug("Attempting to connect to redis: %s db=%d", opts.Addr, opts.DB)

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return newError(ErrConnection, "connect", fmt.Errorf("unable to ping redis at %s: %w", opts.Addr, err))
	}

	logger.Debug("Redis ping successful")
	r.client = client
	return nil
}

func (r *Redis) Disconnect() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	if err != nil {
		logger.Debug("Error closing redis connection: %v", err)
	}
	return err
}

func (r *Redis) Exec(ctx context.Context, line string) (*ResultSet, error) {
	return r.ExecParams(ctx, line)
}

func (r *Redis) ExecParams(ctx context.Context, line string, args ...any) (*ResultSet, error) {
	if r.client == nil {
		return nil, errorf(ErrConnection, "exec", "%s is not connected", r.description)
	}
	cmdArgs, err := bindCommand(line, args)
	if err != nil {
		return nil, err
	}

	logger.Debug("Executing redis command: %s", cmdArgs[0])

	startTime := time.Now()
	rs, err := commandResult(r.client.Do(ctx, cmdArgs...))
	if err != nil {
		return nil, err
	}

	logger.Debug("Command executed successfully in %v", time.Since(startTime))
	return rs, nil
}

// commandResult turns a finished command into a ResultSet; a nil reply is
// one NULL row.
func commandResult(cmd *redis.Cmd) (*ResultSet, error) {
	val, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return NewResultSet([]string{"value"}, [][]Value{{Null()}}, 0), nil
	}
	if err != nil {
		return nil, newError(ErrQuery, "exec", err)
	}
	return replyResult(val), nil
}

func (r *Redis) BeginTx(ctx context.Context) (Tx, error) {
	if r.client == nil {
		return nil, errorf(ErrConnection, "begin", "%s is not connected", r.description)
	}
	return &redisTx{pipe: r.client.TxPipeline()}, nil
}

// redisTx queues commands and sends them as one MULTI/EXEC block on commit.
type redisTx struct {
	pipe      redis.Pipeliner
	cmds      []*redis.Cmd
	committed bool
}

func (t *redisTx) Exec(ctx context.Context, line string) (*ResultSet, error) {
	return t.ExecParams(ctx, line)
}

// ExecParams queues the command and returns an empty result; the reply is
// available from Replies after Commit.
func (t *redisTx) ExecParams(ctx context.Context, line string, args ...any) (*ResultSet, error) {
	cmdArgs, err := bindCommand(line, args)
	if err != nil {
		return nil, err
	}
	t.cmds = append(t.cmds, t.pipe.Do(ctx, cmdArgs...))
	return emptyResult(), nil
}

func (t *redisTx) Commit(ctx context.Context) error {
	_, err := t.pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	t.committed = true
	return nil
}

// Replies returns one ResultSet per queued command, in queue order, once
// the transaction has committed.
func (t *redisTx) Replies() ([]*ResultSet, error) {
	if !t.committed {
		return nil, nil
	}
	out := make([]*ResultSet, len(t.cmds))
	for i, cmd := range t.cmds {
		rs, err := commandResult(cmd)
		if err != nil {
			return nil, err
		}
		out[i] = rs
	}
	return out, nil
}

func (t *redisTx) Rollback(context.Context) error {
	t.pipe.Discard()
	return nil
}

// Quote renders value as a double-quoted token the command parser accepts.
func (r *Redis) Quote(value string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value) + `"`
}

func (r *Redis) QuoteName(name string) string { return r.Quote(name) }

// bindCommand splits line into tokens and substitutes $N placeholders.
// A token that is exactly $N receives the argument unchanged; placeholders
// embedded in a longer token are formatted into it.
func bindCommand(line string, args []any) ([]any, error) {
	if err := checkParams(line, len(args), redisSyntax); err != nil {
		return nil, err
	}
	tokens, err := splitCommand(line)
	if err != nil {
		return nil, newError(ErrQuery, "parse", err)
	}
	if len(tokens) == 0 {
		return nil, errorf(ErrQuery, "parse", "empty command")
	}

	out := make([]any, len(tokens))
	for i, tok := range tokens {
		if tok.quoted {
			out[i] = tok.text
			continue
		}
		found := scanPlaceholders(tok.text, redisSyntax)
		switch {
		case len(found) == 0:
			out[i] = tok.text
		case len(found) == 1 && found[0].start == 0 && found[0].end == len(tok.text):
			out[i] = args[found[0].index-1]
		default:
			var b strings.Builder
			last := 0
			for _, p := range found {
				b.WriteString(tok.text[last:p.start])
				fmt.Fprint(&b, args[p.index-1])
				last = p.end
			}
			b.WriteString(tok.text[last:])
			out[i] = b.String()
		}
	}
	return out, nil
}

type commandToken struct {
	text   string
	quoted bool
}

// splitCommand tokenizes a command line the way redis-cli does: whitespace
// separates tokens, double quotes allow backslash escapes, single quotes
// are literal.
func splitCommand(line string) ([]commandToken, error) {
	var (
		tokens []commandToken
		cur    strings.Builder
		inTok  bool
		quoted bool
	)
	flush := func() {
		if inTok {
			tokens = append(tokens, commandToken{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		inTok, quoted = false, false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		case c == '"' || c == '\'':
			inTok, quoted = true, true
			j := i + 1
			for ; j < len(line) && line[j] != c; j++ {
				if c == '"' && line[j] == '\\' && j+1 < len(line) {
					j++
					switch line[j] {
					case 'n':
						cur.WriteByte('\n')
					case 't':
						cur.WriteByte('\t')
					case 'r':
						cur.WriteByte('\r')
					default:
						cur.WriteByte(line[j])
					}
					continue
				}
				cur.WriteByte(line[j])
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated quote at offset %d", i)
			}
			i = j
		default:
			inTok = true
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens, nil
}

// replyResult shapes a reply as rows: scalars give one row in a "value"
// column, arrays one row per element, maps "key"/"value" rows.
func replyResult(val any) *ResultSet {
	switch v := val.(type) {
	case []any:
		rows := make([][]Value, len(v))
		for i, e := range v {
			rows[i] = []Value{replyValue(e)}
		}
		return NewResultSet([]string{"value"}, rows, 0)
	case map[any]any:
		rows := make([][]Value, 0, len(v))
		for k, e := range v {
			rows = append(rows, []Value{replyValue(k), replyValue(e)})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i][0].String() < rows[j][0].String() })
		return NewResultSet([]string{"key", "value"}, rows, 0)
	case int64:
		return NewResultSet([]string{"value"}, [][]Value{{IntValue(v)}}, v)
	}
	return NewResultSet([]string{"value"}, [][]Value{{replyValue(val)}}, 0)
}

func replyValue(v any) Value {
	switch e := v.(type) {
	case []any, map[any]any:
		b, err := json.Marshal(jsonSafe(e))
		if err != nil {
			return TextValue(fmt.Sprint(e))
		}
		return TextValue(string(b))
	}
	return ValueOf(v)
}

// jsonSafe converts RESP3 maps, whose keys may be any type, into
// map[string]any so they can be marshalled.
func jsonSafe(v any) any {
	switch e := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(e))
		for k, val := range e {
			m[fmt.Sprint(k)] = jsonSafe(val)
		}
		return m
	case []any:
		out := make([]any, len(e))
		for i, val := range e {
			out[i] = jsonSafe(val)
		}
		return out
	}
	return v
}
