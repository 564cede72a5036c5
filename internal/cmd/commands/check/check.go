package check

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagConfig     string
	flagConnection string
	flagJSON       bool
}

func (c *Command) Synopsis() string {
	return "Check connections"
}

func (c *Command) Help() string {
	return `Usage: distributor check [options]

  Checks every configured connection, or only the one named with
  -connection, and reports reachability, authorization and whether the
  remote speaks the distributor protocol.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("check", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagConnection, "connection", "", "Only check the named connection.")
	f.BoolVar(&c.flagJSON, "json", false, "Print results as JSON.")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx := context.Background()
	env, err := c.Open(ctx, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer env.Close()

	names := env.Connections.Names()
	if c.flagConnection != "" {
		names = []string{c.flagConnection}
	}
	if len(names) == 0 {
		c.UI.Warn("no connections are configured")
		return 0
	}

	results := make(map[string]interface{}, len(names))
	healthy := true
	for _, name := range names {
		conn, err := env.Connections.Get(name)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		health := conn.CheckConnections(ctx)
		results[name] = health

		var problems []string
		for key, set := range health.Errors {
			if set {
				problems = append(problems, key)
			}
		}
		sort.Strings(problems)
		if !health.Reachable || len(problems) > 0 {
			healthy = false
		}
		if !c.flagJSON {
			status := "ok"
			if len(problems) > 0 {
				status = strings.Join(problems, ", ")
			}
			c.UI.Output(fmt.Sprintf("%s: reachable=%t %s", name, health.Reachable, status))
		}
	}

	if c.flagJSON {
		if err := c.OutputJSON(results); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	}
	if !healthy {
		return 2
	}
	return 0
}
