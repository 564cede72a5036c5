package get

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

type Command struct {
	*base.Command

	flagConfig     string
	flagConnection string
	flagPostType   string
	flagFormat     string
}

func (c *Command) Synopsis() string {
	return "Read a single remote item"
}

func (c *Command) Help() string {
	return `Usage: distributor get -connection=<name> [options] <remote-id>

  Reads a remote item and prints it as JSON or YAML without importing it.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("get", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagConnection, "connection", "", "(Required) Name of the connection to read from.")
	f.StringVar(&c.flagPostType, "post-type", "post", "Remote post type of the item.")
	f.StringVar(&c.flagFormat, "format", base.FormatJSON, "Output format: json or yaml.")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagConnection == "" {
		c.UI.Error("connection flag is required")
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one remote item ID is required")
		return 1
	}
	if c.flagFormat != base.FormatJSON && c.flagFormat != base.FormatYAML {
		c.UI.Error(fmt.Sprintf("unsupported output format %q", c.flagFormat))
		return 1
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid remote item ID: %v", err))
		return 1
	}

	ctx := context.Background()
	env, err := c.Open(ctx, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer env.Close()

	conn, err := env.Connections.Get(c.flagConnection)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	item, err := conn.RemoteGet(ctx, syndication.ItemReference{RemotePostID: id, PostType: c.flagPostType})
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s: %v", syndication.KindOf(err), err))
		return 1
	}
	if err := c.Output(c.flagFormat, item); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return 0
}
