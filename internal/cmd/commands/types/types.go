package types

import (
	"context"
	"flag"
	"fmt"

	"github.com/iancoleman/strcase"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

type Command struct {
	*base.Command

	flagConfig   string
	flagRegister string
	flagRestBase string
	flagEditor   bool
}

func (c *Command) Synopsis() string {
	return "List or register local content types"
}

func (c *Command) Help() string {
	return `Usage: distributor types [options]

  Lists the local content types. With -register, registers or updates a
  type first. The REST base defaults to the plural of the type name.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("types", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagRegister, "register", "", "Name of a type to register.")
	f.StringVar(&c.flagRestBase, "rest-base", "", "REST base of the registered type.")
	f.BoolVar(&c.flagEditor, "editor", true, "Whether the registered type supports the editor.")
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

	if c.flagRegister != "" {
		name := strcase.ToSnake(c.flagRegister)
		restBase := c.flagRestBase
		if restBase == "" {
			restBase = strcase.ToKebab(name) + "s"
		}
		info := syndication.TypeInfo{Name: name, RestBase: restBase, SupportsEditor: c.flagEditor}
		if err := env.Repository.RegisterType(ctx, info); err != nil {
			c.UI.Error(fmt.Sprintf("error registering type: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("registered type %s at /%s", name, restBase))
	}

	types, err := env.Repository.ListTypes(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing types: %v", err))
		return 1
	}
	for _, t := range types {
		c.UI.Output(fmt.Sprintf("%-20s /%-20s editor=%t", t.Name, t.RestBase, t.SupportsEditor))
	}
	return 0
}
