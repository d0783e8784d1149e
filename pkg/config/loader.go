package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[string]any)

	defaultEnvOnce sync.Once
)

// LoadEnv loads one or more .env files into the process environment before
// any struct is parsed. Later files take precedence over earlier ones.
// Variables already present in the environment always win over file values.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses environment variables into cfg based on its `env` tags. The
// first call for a given struct type does the parsing; subsequent calls for
// the same type return the cached copy, so every component sees identical
// configuration regardless of call order. A default .env file in the
// working directory is loaded lazily once, if present.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}
	defaultEnvOnce.Do(func() {
		_ = godotenv.Load() // missing .env is fine
	})

	key := typeName[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		return nil
	}
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = *cfg
	return nil
}

// MustLoad is Load that panics on failure. Startup path only.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ResetCache clears all cached configuration structs. Test helper for when
// the process environment changes between cases.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[string]any)
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
