package operator

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

type UnlinkCommand struct {
	*base.Command

	flagConfig     string
	flagConnection string
	flagRelink     bool
}

func (c *UnlinkCommand) Synopsis() string {
	return "Unlink pulled copies from their origin"
}

func (c *UnlinkCommand) Help() string {
	return `Usage: distributor operator unlink -connection=<name> [options] <local-id>...

  Marks pulled copies as unlinked. Later pulls from the connection skip
  them and subscription updates from the origin are ignored. With -relink
  the mark is removed.` + c.Flags().Help()
}

func (c *UnlinkCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("unlink", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagConnection, "connection", "", "(Required) Connection the copies were pulled from.")
	f.BoolVar(&c.flagRelink, "relink", false, "Link the copies again.")
	return f
}

func (c *UnlinkCommand) Run(args []string) int {
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
	connectionID := conn.Info().ID

	unlinked := !c.flagRelink
	value := "0"
	if unlinked {
		value = "1"
	}
	keepAll := func(string) bool { return true }

	ctx, release := env.Repository.Hooks().Suspend(ctx, syndication.HookContentSaved)
	defer release()

	failed := 0
	for _, id := range ids {
		if err := env.Repository.SetUnlinked(ctx, id, connectionID, unlinked); err != nil {
			failed++
			c.UI.Error(fmt.Sprintf("item %d: %v", id, err))
			continue
		}
		meta := map[string][]string{syndication.MetaUnlinked: {value}}
		if err := env.Repository.SetMeta(ctx, id, meta, keepAll); err != nil {
			failed++
			c.UI.Error(fmt.Sprintf("item %d: %v", id, err))
			continue
		}
		c.Log.Info("updated linkage", "local_id", id, "connection", c.flagConnection, "unlinked", unlinked)
		c.UI.Output(fmt.Sprintf("item %d: unlinked=%t", id, unlinked))
	}
	if failed > 0 {
		return 1
	}
	return 0
}
