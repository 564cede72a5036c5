package push

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

type Command struct {
	*base.Command

	flagConfig     string
	flagConnection string
	flagPostType   string
	flagStatus     string
	flagParent     int64
}

func (c *Command) Synopsis() string {
	return "Push local items to a connection"
}

func (c *Command) Help() string {
	return `Usage: distributor push -connection=<name> [options] <local-id>...

  Creates or updates the remote copy of each local item. Items already
  pushed to the connection update their existing remote copy. When the
  remote speaks the distributor protocol a subscription keeps the copy in
  sync with later local saves.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("push", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagConnection, "connection", "", "(Required) Name of the connection to push to.")
	f.StringVar(&c.flagPostType, "post-type", "", "Remote post type. Defaults to the local item's type.")
	f.StringVar(&c.flagStatus, "status", "", "Override the pushed status, e.g. draft.")
	f.Int64Var(&c.flagParent, "parent", 0, "Remote parent item ID.")
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
	ids, err := base.ParseIDs(f.Args())
	if err != nil || len(ids) == 0 {
		c.UI.Error("at least one valid local item ID is required")
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

	opts := syndication.PushOptions{
		PostType:       c.flagPostType,
		Status:         c.flagStatus,
		RemoteParentID: c.flagParent,
	}
	failed := 0
	for _, id := range ids {
		result, err := conn.Push(ctx, id, opts)
		if err != nil {
			failed++
			c.UI.Error(fmt.Sprintf("item %d: %s: %v", id, syndication.KindOf(err), err))
			continue
		}
		c.UI.Output(fmt.Sprintf("item %d: remote %d %s (linked: %t)",
			id, result.RemotePostID, result.RemoteURL, result.Linked))
	}
	if failed > 0 {
		return 1
	}
	return 0
}
