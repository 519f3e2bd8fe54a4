package gateway

import "errors"

const (
	// DefaultToken is used when no token is configured.
	DefaultToken = "@yixiu"

	// DefaultMaxUploadBytes bounds the size of an upload request body.
	// Uploads are buffered in memory in full.
	DefaultMaxUploadBytes = 25 << 20
)

// Config is resolved once at startup and never changes afterwards.
type Config struct {
	// Token is the shared secret. Empty means DefaultToken.
	Token string

	// MaxUploadBytes caps upload request bodies, multipart framing included.
	// Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

func (c Config) withDefaults() (Config, error) {
	if c.Token == "" {
		c.Token = DefaultToken
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.MaxUploadBytes < 0 {
		return c, errors.New("negative upload limit")
	}
	return c, nil
}
