package bridge

import (
	"fmt"
	"os"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

// Source is one configured upstream SIRI endpoint.
type Source struct {
	Identifier string
	URL        string
	Refresh    time.Duration
}

type sourcesFile struct {
	Sources []struct {
		Identifier string `yaml:"identifier"`
		URL        string `yaml:"url"`
		Refresh    string `yaml:"refresh"`
	} `yaml:"sources"`
}

const defaultSourceRefresh = 30 * time.Second

// LoadSources reads the yaml source registry. Refresh cadences use ISO-8601
// durations (PT30S, PT2M and so on).
func LoadSources(path string) ([]Source, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file sourcesFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return nil, err
	}

	var sources []Source

	for _, entry := range file.Sources {
		if entry.Identifier == "" || entry.URL == "" {
			return nil, fmt.Errorf("source entries require an identifier and a url")
		}

		refresh := defaultSourceRefresh

		if entry.Refresh != "" {
			interval, err := iso8601.ParseISO8601(entry.Refresh)
			if err != nil {
				return nil, fmt.Errorf("source %s has an invalid refresh %q: %w", entry.Identifier, entry.Refresh, err)
			}

			now := time.Now()
			refresh = interval.Shift(now).Sub(now)
		}

		sources = append(sources, Source{
			Identifier: entry.Identifier,
			URL:        entry.URL,
			Refresh:    refresh,
		})
	}

	return sources, nil
}
