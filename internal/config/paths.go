package config

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/util/homedir"
)

const appName = "qontrol"

// Environment variables read by qontrol.
const (
	EnvConfigDir = "QONTROL_CONFIG_DIR"
	EnvCacheDir  = "QONTROL_CACHE_DIR"
	EnvProfile   = "QONTROL_PROFILE"
	EnvBaseURL   = "QONTROL_BASE_URL"
	EnvLogLevel  = "QONTROL_LOG_LEVEL"
)

// ConfigDir resolves the profile store directory from QONTROL_CONFIG_DIR,
// XDG_CONFIG_HOME/qontrol or HOME/.config/qontrol, in that order.
func ConfigDir() string {
	return resolveDir(EnvConfigDir, "XDG_CONFIG_HOME", ".config")
}

// CacheDir resolves the cache directory from QONTROL_CACHE_DIR,
// XDG_CACHE_HOME/qontrol or HOME/.cache/qontrol, in that order.
func CacheDir() string {
	return resolveDir(EnvCacheDir, "XDG_CACHE_HOME", ".cache")
}

// DefaultPath returns the profile store file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func resolveDir(appEnv, xdgEnv, homeSub string) string {
	if v := os.Getenv(appEnv); v != "" {
		return v
	}
	if v := os.Getenv(xdgEnv); v != "" {
		return filepath.Join(v, appName)
	}
	home := homedir.HomeDir()
	if home == "" {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, homeSub, appName)
}
