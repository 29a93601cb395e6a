// Package manifest defines the boot manifest format kimg pack compiles: a
// YAML description of the set of ELF servers a boot image should carry,
// each with the loader options kernel/elf.Options exposes.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry describes one ELF server to embed in a boot image.
type Entry struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	Priority    uint8  `yaml:"priority"`
	Quantum     uint32 `yaml:"quantum"`
	MapVGA      bool   `yaml:"mapVGA,omitempty"`
	IOPrivilege bool   `yaml:"ioPrivilege,omitempty"`
}

// Manifest is the top-level boot manifest document.
type Manifest struct {
	Servers []Entry `yaml:"servers"`
}

// Load parses a boot manifest from path.
func Load(path string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every entry has a non-empty name, a non-empty path
// and a non-zero quantum. Priority is not checked: kernel/task's PCB field
// is a plain byte, so any uint8 value is already in range.
func (m Manifest) Validate() error {
	for _, e := range m.Servers {
		if e.Name == "" {
			return fmt.Errorf("manifest entry with empty name (path %q)", e.Path)
		}
		if e.Path == "" {
			return fmt.Errorf("manifest entry %q has no path", e.Name)
		}
		if e.Quantum == 0 {
			return fmt.Errorf("manifest entry %q has a zero quantum", e.Name)
		}
	}
	return nil
}
