package catalog

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type stageFile struct {
	Stages []struct {
		ID          string `toml:"id"`
		Title       string `toml:"title"`
		Description string `toml:"description"`
		SubTasks    []struct {
			ID       string   `toml:"id"`
			Title    string   `toml:"title"`
			Required bool     `toml:"required"`
			Sources  []string `toml:"sources"`
		} `toml:"subtasks"`
	} `toml:"stages"`
}

// LoadFile builds a catalog from a TOML stage definition file. Stage order in
// the file determines ordinals.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var parsed stageFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	stages := make([]Stage, 0, len(parsed.Stages))
	for _, s := range parsed.Stages {
		stage := Stage{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
		}
		for _, task := range s.SubTasks {
			stage.SubTasks = append(stage.SubTasks, SubTask{
				ID:       task.ID,
				Title:    task.Title,
				Required: task.Required,
				Sources:  task.Sources,
			})
		}
		stages = append(stages, stage)
	}

	c, err := New(stages)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Resolve returns the catalog configured for the process: the file-backed
// catalog when a path is given, the built-in catalog otherwise.
func Resolve(path string) (*Catalog, error) {
	if path == "" {
		return BuiltIn(), nil
	}
	return LoadFile(path)
}
