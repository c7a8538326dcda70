package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AppName    = "feedbox"
	AppVersion = "1.0.0"
)

// UserAgent sent on outbound feed fetches.
var UserAgent = AppName + "/" + AppVersion

type Config struct {
	DBPath          string
	DataDir         string
	RefreshInterval time.Duration
	HTTPTimeout     time.Duration
	LogLevel        string
}

func Load() Config {
	dataDir := os.Getenv("FEEDBOX_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	path := os.Getenv("FEEDBOX_DB_PATH")
	if path == "" {
		path = filepath.Join(dataDir, "feedbox.db")
	}

	return Config{
		DBPath:          filepath.Clean(path),
		DataDir:         filepath.Clean(dataDir),
		RefreshInterval: durationEnv("FEEDBOX_REFRESH_INTERVAL", 15*time.Minute),
		HTTPTimeout:     durationEnv("FEEDBOX_HTTP_TIMEOUT", 30*time.Second),
		LogLevel:        os.Getenv("FEEDBOX_LOG_LEVEL"),
	}
}

// durationEnv reads a duration env var, accepting Go duration strings
// ("5m") or bare second counts ("300").
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
