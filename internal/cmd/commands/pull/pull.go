package pull

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
	flagJSON       bool
}

func (c *Command) Synopsis() string {
	return "Pull remote items from a connection"
}

func (c *Command) Help() string {
	return `Usage: distributor pull -connection=<name> [options] <remote-id>...

  Imports remote items as local items. An item pulled before updates its
  local copy unless the copy was unlinked. Every item is attempted and one
  line is reported per item, in order.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("pull", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagConnection, "connection", "", "(Required) Name of the connection to pull from.")
	f.StringVar(&c.flagPostType, "post-type", "post", "Remote post type of the items.")
	f.BoolVar(&c.flagJSON, "json", false, "Print the pull report as JSON.")
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
		c.UI.Error("at least one valid remote item ID is required")
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

	refs := make([]syndication.ItemReference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, syndication.ItemReference{RemotePostID: id, PostType: c.flagPostType})
	}
	report := conn.Pull(ctx, refs)

	if c.flagJSON {
		if err := c.OutputJSON(newReportView(report)); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	} else {
		for _, o := range report {
			line := fmt.Sprintf("remote %d: %s", o.Ref.RemotePostID, o.Status)
			if o.LocalID != 0 {
				line += fmt.Sprintf(" (local %d)", o.LocalID)
			}
			if o.Err != nil {
				c.UI.Error(line + ": " + o.Err.Error())
				continue
			}
			c.UI.Output(line)
		}
	}
	if len(report.Failed()) > 0 {
		return 1
	}
	return 0
}

type outcomeView struct {
	RemotePostID int64  `json:"remote_post_id"`
	PostType     string `json:"post_type"`
	Status       string `json:"status"`
	LocalID      int64  `json:"local_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Kind         string `json:"kind,omitempty"`
}

func newReportView(report syndication.PullReport) []outcomeView {
	out := make([]outcomeView, 0, len(report))
	for _, o := range report {
		v := outcomeView{
			RemotePostID: o.Ref.RemotePostID,
			PostType:     o.Ref.PostType,
			Status:       o.Status.String(),
			LocalID:      o.LocalID,
		}
		if o.Err != nil {
			v.Error = o.Err.Error()
			v.Kind = syndication.KindOf(o.Err).String()
		}
		out = append(out, v)
	}
	return out
}
