package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// header telling the acting user, when the configuration does not tell it.
const DefaultIdentityHeader = "X-Remote-User"

const DefaultServerPort = "8010"

// user who can see all pipelines, when the configuration does not tell it.
const DefaultAdminUser = "chris"

var ErrInvalidConfig = errors.New("store: invalid configuration")

type StoreConfig struct {
	// connection string for database.
	DBURI string `yaml:"dburi"`

	ServerPort string `yaml:"serverport"`

	// one of debug, info, warn, error or off.
	LogLevel string `yaml:"loglevel"`

	// directory containing versioned schema (.sql) directories.
	//
	// When given, the server stops when the schema in the database becomes older than this repository.
	SchemaRepository string `yaml:"schemaRepository"`

	// request header set by the authenticating proxy, telling the acting user.
	IdentityHeader string `yaml:"identityHeader"`

	// user who can see every pipeline, including locked pipelines of others.
	AdminUser string `yaml:"adminUser"`
}

func LoadStoreConfig(filepath string) (*StoreConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*StoreConfig, error) {
	out := StoreConfig{
		ServerPort:     DefaultServerPort,
		LogLevel:       "info",
		IdentityHeader: DefaultIdentityHeader,
		AdminUser:      DefaultAdminUser,
	}
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	if out.DBURI == "" {
		return nil, fmt.Errorf("%w: dburi is required", ErrInvalidConfig)
	}
	return &out, nil
}
