package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/check"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/get"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/migrate"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/operator"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/pull"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/push"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/types"
	"github.com/hashicorp-forge/distributor/internal/cmd/commands/version"
)

// Commands returns the command factories of the CLI.
func Commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := func() *base.Command {
		return base.NewCommand(log, ui)
	}

	return map[string]cli.CommandFactory{
		"check": func() (cli.Command, error) {
			return &check.Command{Command: b()}, nil
		},
		"get": func() (cli.Command, error) {
			return &get.Command{Command: b()}, nil
		},
		"migrate": func() (cli.Command, error) {
			return &migrate.Command{Command: b()}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b()}, nil
		},
		"operator unlink": func() (cli.Command, error) {
			return &operator.UnlinkCommand{Command: b()}, nil
		},
		"pull": func() (cli.Command, error) {
			return &pull.Command{Command: b()}, nil
		},
		"push": func() (cli.Command, error) {
			return &push.Command{Command: b()}, nil
		},
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b()}, nil
		},
		"types": func() (cli.Command, error) {
			return &types.Command{Command: b()}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b()}, nil
		},
	}
}
