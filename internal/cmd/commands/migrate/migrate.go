package migrate

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/internal/migrate"
	"github.com/hashicorp-forge/distributor/pkg/database"
)

type Command struct {
	*base.Command

	flagConfig string
	flagDown   int
	flagStatus bool
}

func (c *Command) Synopsis() string {
	return "Apply database migrations"
}

func (c *Command) Help() string {
	return `Usage: distributor migrate [options]

  Applies the embedded schema migrations to the configured database.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("migrate", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.IntVar(&c.flagDown, "down", 0, "Revert this many migrations instead of applying.")
	f.BoolVar(&c.flagStatus, "status", false, "Only print the current version.")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	dbCfg := cfg.Database.DatabaseConfig()
	dsn := dbCfg.DSN
	if dsn == "" && dbCfg.Driver == database.DriverPostgres {
		dsn = database.PostgresDSN(dbCfg)
	}
	db, err := migrate.Open(dbCfg.Driver, dsn)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}
	defer db.Close()

	switch {
	case c.flagStatus:
	case c.flagDown > 0:
		if err := migrate.Down(db, dbCfg.Driver, c.flagDown); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	default:
		if err := migrate.RunMigrations(db, dbCfg.Driver); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	}

	version, dirty, err := migrate.GetMigrationVersion(db, dbCfg.Driver)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading migration version: %v", err))
		return 1
	}
	c.UI.Output(fmt.Sprintf("database at version %d (dirty: %t)", version, dirty))
	return 0
}
