package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// keys in the properties files are dotted, so viper must not treat "." as nesting
const flatKeyDelimiter = "::"

// Store is a key/value settings file that records every default it hands out.
// The first lookup of a missing key writes the default back to disk so operators
// always find the complete set of tunables in the file.
type Store struct {
	mu     sync.Mutex
	path   string
	format string
	v      *viper.Viper
	log    *slog.Logger
}

// OpenStore loads the file at path, creating it when it does not exist yet.
// The format is taken from the file extension and defaults to "properties".
func OpenStore(path string) (*Store, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "properties"
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(flatKeyDelimiter))
	v.SetConfigFile(path)
	v.SetConfigType(format)

	s := &Store{
		path:   path,
		format: format,
		v:      v,
		log:    slog.Default().With("component", "config_store", "path", path),
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create config dir: %w", err)
			}
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		s.log.Info("Created empty settings file")
	}

	return s, nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Get returns the value of key, writing def back to the file when the key is absent
func (s *Store) Get(key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v.IsSet(key) {
		return s.v.GetString(key)
	}

	s.v.Set(key, def)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		// the in-memory default still applies for this process
		s.log.Warn("Failed to persist default", "key", key, "error", err)
	}
	return def
}

// GetInt is Get for integer settings. An unparsable value falls back to def.
func (s *Store) GetInt(key string, def int) int {
	raw := s.Get(key, strconv.Itoa(def))
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.log.Warn("Invalid integer setting", "key", key, "value", raw)
		return def
	}
	return n
}

// GetInt64 is Get for 64-bit integer settings
func (s *Store) GetInt64(key string, def int64) int64 {
	raw := s.Get(key, strconv.FormatInt(def, 10))
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.log.Warn("Invalid integer setting", "key", key, "value", raw)
		return def
	}
	return n
}

// GetBool is Get for boolean settings
func (s *Store) GetBool(key string, def bool) bool {
	raw := s.Get(key, strconv.FormatBool(def))
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		s.log.Warn("Invalid boolean setting", "key", key, "value", raw)
		return def
	}
	return b
}

// GetDuration reads an integer count of unit, e.g. GetDuration("x.timeout.minutes", 20, time.Minute)
func (s *Store) GetDuration(key string, def int64, unit time.Duration) time.Duration {
	return time.Duration(s.GetInt64(key, def)) * unit
}
