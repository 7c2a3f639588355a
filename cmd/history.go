package main

import (
	"context"
	"time"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// runView flattens a SyncRun for JSON output.
type runView struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	RowsTotal  int       `json:"rows_total"`
	Skipped    int       `json:"skipped"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Exported   int       `json:"exported"`
	MailSent   bool      `json:"mail_sent"`
	DryRun     bool      `json:"dry_run"`
	Error      string    `json:"error,omitempty"`
}

func newRunView(run *models.SyncRun) runView {
	return runView{
		ID:         run.ID(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		RowsTotal:  run.RowsTotal,
		Skipped:    run.Skipped,
		Created:    run.Created,
		Updated:    run.Updated,
		Failed:     run.Failed,
		Exported:   run.Exported,
		MailSent:   run.MailSent,
		DryRun:     run.DryRun,
		Error:      run.Error,
	}
}

// HistoryList prints recent sync runs, most recent first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewSyncRunRepository(db)
	runs, err := repo.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded yet.\n")
		return nil
	}

	for _, run := range runs {
		status := "ok"
		if !run.Succeeded() {
			status = "failed"
		}
		if run.DryRun {
			status += " (dry)"
		}
		r.writePlain("%s  %-11s created=%d updated=%d failed=%d skipped=%d exported=%d\n",
			run.StartedAt.Format("2006-01-02 15:04"), status,
			run.Created, run.Updated, run.Failed, run.Skipped, run.Exported)
	}

	return nil
}
