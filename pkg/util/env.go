package util

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads `.env.<env>` first and then `.env` as a fallback.
// Variables already present in the process environment always win.
func LoadEnv(env string) error {
	loaded := false
	for _, name := range []string{fmt.Sprintf(".env.%s", env), ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return err
		}
		loaded = true
	}
	if !loaded {
		return fmt.Errorf("no .env file found for env %q", env)
	}
	return nil
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetDurationEnv parses values like "30s" or "5m", returning def when the
// variable is unset or unparsable.
func GetDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
