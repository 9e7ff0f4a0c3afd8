package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"spotinfo/db"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Prune old rows from the seen submissions table",
		Description: `Deletes seen-submission records first seen more than the given
number of days ago.

The bot itself never prunes; the table grows until this command is run.
Pruning records for submissions that are still inside the forum's "new"
window would make the bot reply to them again, so keep the cutoff well
above a few days.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:     "older-than",
				Usage:    "Age cutoff in days",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			store, err := db.NewStore(ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			olderThan := time.Duration(ctx.Int("older-than")) * 24 * time.Hour

			removed, err := store.Tidy(ctx.Context, olderThan)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d records\n", removed)

			return nil
		},
	}
}
