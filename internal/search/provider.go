// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// ErrMissingAPIKey is returned by New when the selected provider has no key.
var ErrMissingAPIKey = errors.New("search API key not configured")

// Providers lists the supported provider names.
var Providers = []string{"serper", "brave"}

// New builds the provider named by cfg.Provider (default "serper").
func New(cfg types.SearchConfig, client *httputil.Client) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = "serper"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, name)
	}
	switch name {
	case "serper":
		return &SerperProvider{
			Client:   client,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Country:  cfg.Country,
			Language: cfg.Language,
		}, nil
	case "brave":
		return &BraveProvider{
			Client:   client,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Country:  cfg.Country,
			Language: cfg.Language,
		}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q (supported: %s)", cfg.Provider, strings.Join(Providers, ", "))
	}
}

// SecretName returns the .secrets/ file holding the key for provider.
func SecretName(provider string) string {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = "serper"
	}
	return name + "-api-key"
}

// EnvKey returns the environment variable consulted when no secret file exists.
func EnvKey(provider string) string {
	name := strings.ToUpper(strings.TrimSpace(provider))
	if name == "" {
		name = "SERPER"
	}
	return name + "_API_KEY"
}
