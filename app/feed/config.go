package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfigs reads every feed configuration file (*.yml, *.yaml) from
// feedsDir. Feed names derive from filenames, so configs are returned
// sorted by name for a deterministic processing order.
func LoadConfigs(feedsDir string) ([]*Config, error) {
	if _, err := os.Stat(feedsDir); err != nil {
		return nil, fmt.Errorf("failed to access feeds directory %s: %w", feedsDir, err)
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(feedsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find configuration files: %w", err)
		}
		files = append(files, matches...)
	}

	configs := make([]*Config, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if previous, ok := seen[feedName]; ok {
			return nil, fmt.Errorf("duplicate feed name '%s' from %s and %s", feedName, previous, file)
		}
		seen[feedName] = file

		feedConfig, err := loadConfig(file, feedName)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", feedConfig.Settings.Enabled, "url", feedConfig.URL)
		configs = append(configs, feedConfig)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})

	return configs, nil
}

func loadConfig(configFile, feedName string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var feedConfig Config
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	feedConfig.Name = feedName

	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = 10
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = 30
	}

	if err := validateConfig(&feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &feedConfig, nil
}

func validateConfig(feedConfig *Config) error {
	requiredFeedFields := map[string]string{
		"feed name": feedConfig.Name,
		"feed URL":  feedConfig.URL,
	}

	for fieldName, fieldValue := range requiredFeedFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"max items": feedConfig.Settings.MaxItems,
		"timeout":   feedConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	validFields := map[string]bool{
		"title":      true,
		"summary":    true,
		"content":    true,
		"link":       true,
		"categories": true,
	}

	for i, filter := range feedConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
