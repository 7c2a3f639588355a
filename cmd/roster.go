package main

import (
	"context"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/roster"
	"github.com/kelarin/rosync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RosterPreview fetches and parses the roster without touching the remote
// store, reporting what a sync run would work with.
func (r *Runner) RosterPreview(ctx context.Context, cmd *cli.Command) error {
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
	members, skipped, err := tasks.BuildRoster(rows, r.engineOptions(false))
	if err != nil {
		return err
	}

	withPhone := 0
	for _, m := range members {
		if m.HasPhone() {
			withPhone++
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Total     int             `json:"total"`
			Skipped   int             `json:"skipped"`
			WithPhone int             `json:"with_phone"`
			Members   []models.Member `json:"members"`
		}{len(members) + skipped, skipped, withPhone, members}, true)
	}

	r.writePlain("Rows:       %d\n", len(members)+skipped)
	r.writePlain("Members:    %d\n", len(members))
	r.writePlain("Skipped:    %d\n", skipped)
	r.writePlain("With phone: %d\n\n", withPhone)

	limit := int(cmd.Int("limit"))
	for i, m := range members {
		if limit > 0 && i >= limit {
			r.writePlain("... and %d more\n", len(members)-limit)
			break
		}
		phone := m.Phone
		if phone == "" {
			phone = "-"
		}
		r.writePlain("%-12s %-30s %s\n", m.ID, m.Name, phone)
	}

	return nil
}
