package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kelarin/rosync/internal/formatter"
	"github.com/kelarin/rosync/internal/roster"
	"github.com/kelarin/rosync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportVCF writes the contact bundle to a local file instead of mailing it.
func (r *Runner) ExportVCF(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	feed, err := r.buildFeed()
	if err != nil {
		return err
	}

	data, err := feed.Fetch(ctx)
	if err != nil {
		return err
	}

	rows := roster.Parse(data)
	members, _, err := tasks.BuildRoster(rows, r.engineOptions(false))
	if err != nil {
		return err
	}

	count := formatter.CountContacts(members)
	if count == 0 {
		r.writePlain("No members with phone numbers, nothing to export.\n")
		return nil
	}

	output := cmd.String("output")
	bundle := formatter.ContactBundle(members)
	if err := os.WriteFile(output, bundle, 0644); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	r.logger.Info("contact bundle written", "path", output, "contacts", count)
	r.writePlain("Wrote %d contacts to %s\n", count, output)
	return nil
}
