package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/fbz-tec/dbport/core/config"
)

const (
	DefaultMySQLHost = "localhost"
	DefaultMySQLPort = 3306
)

// MySQL is a Backend over one go-sql-driver/mysql connection.
type MySQL struct {
	sqlBackend
	cfg config.Config
}

func NewMySQL(cfg config.Config) *MySQL {
	cfg = cfg.WithDefaults(DefaultMySQLHost, DefaultMySQLPort, "", "")
	dsnCfg := mysqlDSN(cfg)
	safe := *dsnCfg
	if safe.Passwd != "" {
		safe.Passwd = "***"
	}
	return &MySQL{
		cfg: cfg,
		sqlBackend: sqlBackend{
			dialect: sqlDialect{
				typ:    TypeMySQL,
				driver: "mysql",
				syntax: mysqlSyntax,
				rebind: func(query string, args []any) (string, []any) {
					return rebindQuestion(query, args, mysqlSyntax)
				},
				normalize: mysqlValue,
			},
			dsn:         dsnCfg.FormatDSN(),
			safeDSN:     safe.FormatDSN(),
			description: fmt.Sprintf("MySQL database at %s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
		},
	}
}

func mysqlDSN(cfg config.Config) *mysql.Config {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.MultiStatements = false
	switch strings.ToLower(cfg.SSLMode) {
	case "require", "verify-full", "verify-ca", "true":
		c.TLSConfig = "true"
	case "skip-verify", "preferred":
		c.TLSConfig = cfg.SSLMode
	}
	return c
}

// mysqlValue decodes the text-protocol byte slices the driver hands back for
// most column types.
func mysqlValue(ct *sql.ColumnType, v any) Value {
	b, ok := v.([]byte)
	if !ok {
		return ValueOf(v)
	}
	s := string(b)
	switch ct.DatabaseTypeName() {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(n)
		}
		return TextValue(s)
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return ValueOf(n)
		}
		return TextValue(s)
	case "FLOAT", "DOUBLE", "DECIMAL":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatValue(f)
		}
		return TextValue(s)
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		return BytesValue(b)
	}
	return TextValue(s)
}

// Quote escapes backslashes as well as quotes, since MySQL treats \ as an
// escape character inside string literals by default.
func (m *MySQL) Quote(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `''`, "\x00", `\0`)
	return "'" + r.Replace(value) + "'"
}

func (m *MySQL) QuoteName(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

func (m *MySQL) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := m.names(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = $1", table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (m *MySQL) TableColumns(ctx context.Context, table string) ([]string, error) {
	return m.names(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = $1 ORDER BY ordinal_position", table)
}
