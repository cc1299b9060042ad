package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys lists the settable configuration keys in dot notation.
var Keys = []string{
	"type",
	"sqlite.path",
	"mysql.host", "mysql.port", "mysql.user", "mysql.password", "mysql.database",
	"postgresql.host", "postgresql.port", "postgresql.user", "postgresql.password", "postgresql.database",
}

// GetValue returns a configuration value by dot-separated key (e.g. "mysql.host").
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "type":
		return string(c.Type), nil
	case "sqlite.path":
		return c.SQLite.Path, nil
	}

	block, field, err := c.serverField(key)
	if err != nil {
		return "", err
	}
	switch field {
	case "host":
		return block.Host, nil
	case "port":
		return strconv.Itoa(block.Port), nil
	case "user":
		return block.User, nil
	case "password":
		return block.Password, nil
	default:
		return block.Database, nil
	}
}

// SetValue sets a configuration value by dot-separated key.
// The value is parsed based on the target field's type.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "type":
		b, err := ParseBackend(value)
		if err != nil {
			return err
		}
		c.Type = b
		return nil
	case "sqlite.path":
		c.SQLite.Path = value
		return nil
	}

	block, field, err := c.serverField(key)
	if err != nil {
		return err
	}
	switch field {
	case "host":
		block.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", value)
		}
		block.Port = port
	case "user":
		block.User = value
	case "password":
		block.Password = value
	default:
		block.Database = value
	}
	return nil
}

func (c *Config) serverField(key string) (*ServerConfig, string, error) {
	prefix, field, ok := strings.Cut(key, ".")
	if !ok {
		return nil, "", fmt.Errorf("unknown config key: %s", key)
	}

	var block *ServerConfig
	switch prefix {
	case "mysql":
		block = &c.MySQL
	case "postgresql":
		block = &c.PostgreSQL
	default:
		return nil, "", fmt.Errorf("unknown config key: %s", key)
	}

	switch field {
	case "host", "port", "user", "password", "database":
		return block, field, nil
	default:
		return nil, "", fmt.Errorf("unknown config key: %s", key)
	}
}
