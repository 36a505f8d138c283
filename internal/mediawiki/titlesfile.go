// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mediawiki

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// TitlesFile is the on-disk representation of an enumeration run. The
// title list can be saved once and fed to later scrape runs without
// re-walking the wiki's page index.
// Implements: prd001-scrape R1.4.
type TitlesFile struct {
	Source    string    `yaml:"source"`
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
	Titles    []string  `yaml:"titles"`
}

// WriteTitlesFile saves an enumerated title list to a YAML file.
func WriteTitlesFile(path string, source string, titles []string) error {
	tf := TitlesFile{
		Source:    source,
		Total:     len(titles),
		Timestamp: time.Now(),
		Titles:    titles,
	}
	data, err := yaml.Marshal(&tf)
	if err != nil {
		return fmt.Errorf("marshaling titles file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadTitlesFile loads a previously saved title list from disk.
func ReadTitlesFile(path string) (*TitlesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading titles file: %w", err)
	}
	var tf TitlesFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing titles file: %w", err)
	}
	return &tf, nil
}
