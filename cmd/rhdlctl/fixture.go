package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunFixture configures a sim/verify invocation: which inputs to drive
// and for how long, loaded from YAML the way the teacher's
// core.LoadProgramFileFromYAML reads a kernel's program file before a
// run, generalized from a per-PE instruction program to a flat named-
// input/cycle-count run description.
type RunFixture struct {
	Cycles int               `yaml:"cycles"`
	Lanes  int               `yaml:"lanes"`
	Inputs map[string]uint64 `yaml:"inputs"`
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*RunFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rhdlctl: read fixture %q: %w", path, err)
	}

	var f RunFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rhdlctl: parse fixture %q: %w", path, err)
	}
	if f.Cycles == 0 {
		f.Cycles = 1
	}
	if f.Lanes == 0 {
		f.Lanes = 1
	}
	return &f, nil
}
