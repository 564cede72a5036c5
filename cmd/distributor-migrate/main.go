package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hashicorp-forge/distributor/internal/migrate"
)

func main() {
	driver := flag.String("driver", "postgres", "Database driver (postgres|sqlite)")
	dsn := flag.String("dsn", "", "Database connection string")
	down := flag.Int("down", 0, "Revert this many migrations")
	help := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Distributor Database Migration Tool\n\n")
		fmt.Fprintf(os.Stderr, "Applies the schema migrations without a config file, for deploy\n")
		fmt.Fprintf(os.Stderr, "pipelines. Supports PostgreSQL and SQLite.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n\n")
		fmt.Fprintf(os.Stderr, "  PostgreSQL:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=postgres -dsn=\"host=localhost user=postgres password=postgres dbname=distributor port=5432 sslmode=disable\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SQLite:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=sqlite -dsn=\"distributor.db\"\n\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if *dsn == "" {
		log.Fatal("Error: -dsn flag is required\n\nRun with -help for usage information.")
	}

	log.Printf("Connecting to %s database...\n", *driver)
	db, err := migrate.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer db.Close()

	if *down > 0 {
		log.Printf("Reverting %d migrations...\n", *down)
		err = migrate.Down(db, *driver, *down)
	} else {
		log.Printf("Running migrations...\n")
		err = migrate.RunMigrations(db, *driver)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v\n", err)
	}

	version, dirty, err := migrate.GetMigrationVersion(db, *driver)
	if err != nil {
		log.Fatalf("Failed to read migration version: %v\n", err)
	}
	log.Printf("Database at version %d (dirty: %t)\n", version, dirty)
}
