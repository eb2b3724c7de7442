package session

import (
	"fmt"

	"github.com/geocoder89/marketlink/internal/config"
)

// Open builds the session backend selected by cfg.SessionBackend.
// The returned close func is never nil.
func Open(cfg config.Config) (*Session, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionBackend {
	case "", "file":
		return New(NewFileKV(cfg.SessionPath)), noop, nil
	case "memory":
		return New(NewMemoryKV()), noop, nil
	case "redis":
		kv := NewRedisKV(RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.InstallationID,
		})
		return New(kv), kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
