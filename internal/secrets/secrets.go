// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads search provider API keys from a directory of
// plain-text files. The filename is the key name (serper-api-key,
// brave-api-key) and the trimmed file contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Store holds loaded secrets by name.
type Store map[string]string

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error and yields an empty Store. Unreadable files are logged and
// skipped.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Lookup returns the named secret, falling back to the environment
// variable envKey. The second result reports where a non-empty value
// was found ("file", "env") or "" when neither has one.
func (s Store) Lookup(name, envKey string) (string, string) {
	if v := s[name]; v != "" {
		return v, "file"
	}
	if envKey != "" {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			return v, "env"
		}
	}
	return "", ""
}

// Names returns the loaded secret names, sorted. Values are never listed.
func (s Store) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
