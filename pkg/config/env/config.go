// Package env sources config values from environment variables.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/program-pinger/pkg/config"
	"github.com/code-payments/program-pinger/pkg/config/wrapper"
)

type conf struct {
	key string
	val string
	set bool
}

// NewConfig returns a config sourced from the environment variable key
// (upper cased). The variable is read once, at construction. A variable that
// is unset, or set to only whitespace, has no value.
func NewConfig(key string) config.Config {
	key = strings.ToUpper(key)
	val, ok := os.LookupEnv(key)

	return &conf{
		key: key,
		val: val,
		set: ok && len(strings.TrimSpace(val)) > 0,
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	if !c.set {
		return nil, config.ErrNoValue
	}
	return []byte(c.val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
