package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk persona definition. Credentials and operational knobs
// come from flags/env; this file only describes who the agent pretends to be
// and when it speaks up.
type File struct {
	Backstory        string   `yaml:"backstory"`
	Topics           []string `yaml:"topics"`
	NegativeKeywords []string `yaml:"negative_keywords"`
	TriggerWords     []string `yaml:"trigger_words"`

	// per-weekday "HH:MM" lists; empty means interval posting
	Schedule map[string][]string `yaml:"schedule"`

	// interval fallback, in hours
	PostFrequency float64 `yaml:"post_frequency"`
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing persona file: %w", err)
	}
	if f.Backstory == "" {
		return nil, fmt.Errorf("persona file %s has no backstory", path)
	}
	return &f, nil
}

func (f *File) Snapshot() Snapshot {
	return Snapshot{
		Backstory: f.Backstory,
		Topics:    append([]string{}, f.Topics...),
	}
}
