package main

import (
	"context"
	"time"

	"github.com/kelarin/rosync/internal/formatter"
	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/repositories"
	"github.com/kelarin/rosync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun runs one full reconciliation and exits.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	dryRun := cmd.Bool("dry-run")
	asJSON := cmd.Bool("json")
	quiet := cmd.Bool("quiet")

	engine, err := r.buildEngine(dryRun)
	if err != nil {
		return err
	}

	r.logger.Info("starting sync run", "dry_run", dryRun)

	// Progress goes to plain output only; JSON mode keeps stdout machine-readable.
	var progressCh chan tasks.ProgressUpdate
	var drained chan struct{}
	if !quiet && !asJSON {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		drained = make(chan struct{})
		go func() {
			defer close(drained)
			for update := range progressCh {
				r.writePlain("%s\n", update.Message)
			}
		}()
	}

	result, runErr := engine.Run(ctx, progressCh)
	if progressCh != nil {
		close(progressCh)
		<-drained
	}

	if result != nil {
		r.saveRun(result, runErr)
	}
	if runErr != nil {
		return runErr
	}

	if asJSON {
		return r.writeJSON(result, true)
	}
	return r.writePlain("\n%s", formatter.RunReport(result))
}

// SyncWatch runs the pipeline immediately and then on the configured
// interval, forever. Per-run errors are logged, recorded, and swallowed.
func (r *Runner) SyncWatch(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	engine, err := r.buildEngine(false)
	if err != nil {
		return err
	}

	interval := time.Duration(r.config.Sync.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	r.logger.Info("watching roster", "interval", interval)

	scheduler := tasks.NewScheduler(engine, interval, r.logger, r.saveRun)
	return scheduler.Start(ctx)
}

// saveRun records a run in the local history database. Recording is
// best-effort: failures are logged and never affect the run itself.
func (r *Runner) saveRun(result *tasks.SyncResult, runErr error) {
	db, err := r.openHistory()
	if err != nil {
		r.logger.Warn("failed to record run history", "error", err)
		return
	}
	defer db.Close()

	run := models.NewSyncRun(0)
	run.SetID(result.RunID)
	run.StartedAt = result.StartedAt
	run.FinishedAt = result.FinishedAt
	run.RowsTotal = result.RowsTotal
	run.Skipped = result.Skipped
	run.Created = result.Created
	run.Updated = result.Updated
	run.Failed = result.Failed
	run.Exported = result.Exported
	run.MailSent = result.MailSent
	run.DryRun = result.DryRun
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := repositories.NewSyncRunRepository(db).Create(run); err != nil {
		r.logger.Warn("failed to record run history", "error", err)
	}
}
