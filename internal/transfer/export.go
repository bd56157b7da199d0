package transfer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/josephgoksu/tasknest/internal/utils"
	"github.com/josephgoksu/tasknest/models"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// exportIndent is the JSON indentation width of exported documents.
const exportIndent = 4

// Export renders tasks as indented JSON, the format Import reads back.
func Export(tasks models.TasksList) (string, error) {
	if tasks == nil {
		tasks = models.TasksList{}
	}
	data, err := utils.MarshalIndented(tasks, exportIndent)
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return string(data), nil
}

// tomlDocument wraps the forest because TOML documents must be tables.
type tomlDocument struct {
	Tasks models.TasksList `toml:"tasks"`
}

// ExportAs renders tasks in the given format. Only JSON can be imported again.
func ExportAs(tasks models.TasksList, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return Export(tasks)
	case FormatYAML:
		if tasks == nil {
			tasks = models.TasksList{}
		}
		data, err := yaml.Marshal(tasks)
		if err != nil {
			return "", fmt.Errorf("marshal YAML: %w", err)
		}
		return string(data), nil
	case FormatTOML:
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(tomlDocument{Tasks: tasks}); err != nil {
			return "", fmt.Errorf("marshal TOML: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s. Supported formats are json, yaml, toml", format)
	}
}
