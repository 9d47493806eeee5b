package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Command is an external program run as a hook.
type Command struct {
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Hooks names the commands run for each callback. A nil command is skipped.
type Hooks struct {
	Transition *Command `yaml:"transition,omitempty" json:"transition,omitempty"`
	Collect    *Command `yaml:"collect,omitempty" json:"collect,omitempty"`
}

// Empty reports whether no hook is configured.
func (h Hooks) Empty() bool {
	return h.Transition == nil && h.Collect == nil
}

// LoadHooks reads a hooks file (YAML or JSON). A missing file means no hooks.
func LoadHooks(path string) (Hooks, error) {
	var hooks Hooks
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hooks, nil
		}
		return hooks, fmt.Errorf("failed to read hooks config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &hooks); err != nil {
			return hooks, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &hooks); err != nil {
		return hooks, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for name, c := range map[string]*Command{"transition": hooks.Transition, "collect": hooks.Collect} {
		if c != nil && c.Command == "" {
			return hooks, fmt.Errorf("%s hook: command is required", name)
		}
	}
	return hooks, nil
}
