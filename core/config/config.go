package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the connection parameters shared by every backend.
// Zero values mean "not set"; each backend fills in its own defaults.
type Config struct {
	Host     string
	Port     int
	Database string
	FilePath string
	Username string
	Password string
	SSLMode  string
}

// Settings is what LoadConfig reads from the environment: the backend type
// plus its connection parameters.
type Settings struct {
	Type string
	Config
}

// LoadConfig loads settings from environment variables and an optional .env file.
// Missing variables stay empty; no backend defaults are injected here.
func LoadConfig() Settings {

	_ = godotenv.Load()

	return Settings{
		Type: os.Getenv("DB_TYPE"),
		Config: Config{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvInt("DB_PORT"),
			Database: os.Getenv("DB_NAME"),
			FilePath: os.Getenv("DB_FILE"),
			Username: os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
		},
	}
}

// Validate checks that the configured values are usable.
// Absent fields are valid; present ones must make sense.
func (c Config) Validate() error {

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("DB_PORT must be a valid port number (1-65535), got %d", c.Port)
	}

	if c.Host != "" && strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("DB_HOST cannot contain only whitespace")
	}

	if c.Database != "" && strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("DB_NAME cannot contain only whitespace")
	}

	return nil
}

// WithDefaults returns a copy of c with every unset field replaced by the
// given default. A zero default leaves the field unset.
func (c Config) WithDefaults(host string, port int, database, file string) Config {
	if c.Host == "" {
		c.Host = host
	}
	if c.Port == 0 {
		c.Port = port
	}
	if c.Database == "" {
		c.Database = database
	}
	if c.FilePath == "" {
		c.FilePath = file
	}
	return c
}

// String renders the configuration for diagnostics with the password masked.
func (c Config) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("host", c.Host)
	if c.Port != 0 {
		add("port", strconv.Itoa(c.Port))
	}
	add("database", c.Database)
	add("file", c.FilePath)
	add("user", c.Username)
	if c.Password != "" {
		add("password", "****")
	}
	add("sslmode", c.SSLMode)
	return "{" + strings.Join(parts, " ") + "}"
}

func getEnvInt(key string) int {
	if value := os.Getenv(key); value != "" {
		p, err := strconv.Atoi(value)
		if err == nil {
			return p
		}
	}
	return 0
}
