package main

import (
	"fmt"
	"os"

	"github.com/nicolagi/kvgate/gateway"
	"github.com/rogpeppe/rjson"
)

type storeConfig struct {
	Type string `json:"type"`

	// Properties for "disk", "bolt" and "sqlite" types.
	Path string `json:"path"`

	// Properties for "sqlite", "postgres" and "mongo" types.
	DSN string `json:"dsn"`

	// Properties for "mongo" type.
	Database   string `json:"database"`
	Collection string `json:"collection"`

	// Properties for "s3" and "dynamodb" types.
	Profile string `json:"profile"`
	Region  string `json:"region"`
	Bucket  string `json:"bucket"`
	Prefix  string `json:"prefix"`
	Table   string `json:"table"`

	// Properties for "paired" type.
	Fast *storeConfig `json:"fast"`
	Slow *storeConfig `json:"slow"`
}

type config struct {
	Address        string      `json:"address"`
	AdminAddress   string      `json:"admin_address"`
	Token          string      `json:"token"`
	Debug          bool        `json:"debug"`
	LogPath        string      `json:"log_path"`
	MaxUploadBytes int64       `json:"max_upload_bytes"`
	Store          storeConfig `json:"store"`
}

func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var c *config
	if err := rjson.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("%q: %w", pathname, err)
	}
	if c == nil {
		c = new(config)
	}
	return c, nil
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if v := os.Getenv("KVGATE_TOKEN"); v != "" {
		c.Token = v
	}
	if c.Token == "" {
		c.Token = gateway.DefaultToken
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = gateway.DefaultMaxUploadBytes
	}
	c.Store.applyDefaults()
}

func (s *storeConfig) applyDefaults() {
	switch s.Type {
	case "disk":
		if s.Path == "" {
			s.Path = "$HOME/lib/kvgate/data"
		}
	case "bolt":
		if s.Path == "" {
			s.Path = "$HOME/lib/kvgate/blobs.db"
		}
	case "sqlite":
		if s.DSN == "" && s.Path == "" {
			s.Path = "$HOME/lib/kvgate/blobs.sqlite"
		}
	case "mongo":
		if s.Database == "" {
			s.Database = "kvgate"
		}
		if s.Collection == "" {
			s.Collection = "blobs"
		}
	case "paired":
		if s.Fast != nil {
			s.Fast.applyDefaults()
		}
		if s.Slow != nil {
			s.Slow.applyDefaults()
		}
	}
}

// gatewayConfig is the immutable part handed to the gateway.
func (c *config) gatewayConfig() gateway.Config {
	return gateway.Config{
		Token:          c.Token,
		MaxUploadBytes: c.MaxUploadBytes,
	}
}
