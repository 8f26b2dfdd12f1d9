package world

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type worldFile struct {
	Objects []*Record `yaml:"objects"`
}

// LoadDir reads every *.yaml world file in dir into one store.
func LoadDir(dir string) (*Store, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error reading world directory: %w", err)
	}

	store := NewStore()
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading world file: %w", err)
		}
		var parsed worldFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("error unmarshalling %s: %w", filepath.Base(file), err)
		}
		for _, rec := range parsed.Objects {
			if err := store.Add(rec); err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
			}
		}
	}
	return store, nil
}
