// Package settings reads the per-user preferences file that lists the
// currencies and stocks shown on reports.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Settings mirrors user_settings.json.
type Settings struct {
	Currencies []string `json:"user_currencies"`
	Stocks     []string `json:"user_stocks"`
}

// Load reads the settings file at path. An empty path or a missing file
// yields empty settings.
func Load(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return Settings{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses settings and normalizes the codes to trimmed upper case
// without duplicates, keeping their order.
func Decode(r io.Reader) (Settings, error) {
	var s Settings
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.Currencies = normalize(s.Currencies)
	s.Stocks = normalize(s.Stocks)
	return s, nil
}

func normalize(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
