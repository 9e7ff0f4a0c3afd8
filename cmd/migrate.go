package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"spotinfo/db"
)

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Usage:   "Path to the SQLite database file",
		EnvVars: []string{"SPOTINFO_DATABASE"},
		Value:   "spotinfo.db",
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s\n", ctx.String("database"))
			return db.Migrate(ctx.String("database"))
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s\n", ctx.String("database"))
			return db.Rollback(ctx.String("database"))
		},
	}
}
