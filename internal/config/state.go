package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-pufflux/internal/weather"
)

// State is what the evaluator learned and may reuse after a restart. It is
// only trusted when Location matches the configured text.
type State struct {
	Location    string              `yaml:"location"`
	Coordinates weather.Coordinates `yaml:"coordinates"`
	Grid        weather.Grid        `yaml:"grid"`
}

// LoadState reads path. A missing file is an empty state.
func LoadState(path string) (*State, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveState writes atomically through a temp file in the same directory.
func SaveState(path string, s *State) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
