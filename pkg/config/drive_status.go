package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// statusFile is the on-disk shape of DRIVE_STATUS_FILE.
//
//	statuses:
//	  upcoming: Upcoming
//	  ongoing: Cancelled
type statusFile struct {
	Statuses map[string]string `yaml:"statuses"`
}

// ParseStatusLabels reads "value:label" pairs separated by commas.
func ParseStatusLabels(raw string) (map[string]string, error) {
	labels := make(map[string]string)
	for _, pair := range splitAndTrim(raw) {
		value, label, ok := strings.Cut(pair, ":")
		value = strings.ToLower(strings.TrimSpace(value))
		label = strings.TrimSpace(label)
		if !ok || value == "" || label == "" {
			return nil, fmt.Errorf("invalid drive status pair %q", pair)
		}
		labels[value] = label
	}
	if len(labels) == 0 {
		return nil, errors.New("at least one drive status is required")
	}
	return labels, nil
}

// LoadStatusLabels reads the drive status vocabulary from a YAML file.
func LoadStatusLabels(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drive status file: %w", err)
	}
	var file statusFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse drive status file: %w", err)
	}
	labels := make(map[string]string, len(file.Statuses))
	for value, label := range file.Statuses {
		value = strings.ToLower(strings.TrimSpace(value))
		label = strings.TrimSpace(label)
		if value == "" || label == "" {
			return nil, fmt.Errorf("drive status file %s has an empty entry", path)
		}
		labels[value] = label
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("drive status file %s defines no statuses", path)
	}
	return labels, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
