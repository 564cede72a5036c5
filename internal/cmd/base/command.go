// Package base holds what every CLI command shares.
package base

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Output.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand creates a Command.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// OutputJSON writes v as indented JSON to the UI.
func (c *Command) OutputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	c.UI.Output(string(data))
	return nil
}

// OutputYAML writes v as YAML to the UI. Field names and order follow the
// JSON encoding of v.
func (c *Command) OutputYAML(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert to yaml: %w", err)
	}
	blockStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return err
	}
	c.UI.Output(strings.TrimRight(string(out), "\n"))
	return nil
}

// Output writes v in the named format.
func (c *Command) Output(format string, v interface{}) error {
	switch format {
	case "", FormatJSON:
		return c.OutputJSON(v)
	case FormatYAML:
		return c.OutputYAML(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// blockStyle drops the flow and quoting styles carried over from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
