package version

import (
	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: distributor version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("distributor " + version.Version)
	return 0
}
