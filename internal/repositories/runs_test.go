package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleRun(started time.Time) *models.SyncRun {
	run := models.NewSyncRun(0)
	run.StartedAt = started
	run.FinishedAt = started.Add(30 * time.Second)
	run.RowsTotal = 10
	run.Skipped = 1
	run.Created = 4
	run.Updated = 5
	run.Exported = 6
	run.MailSent = true
	return run
}

func TestSyncRunRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncRunRepository(db)

	t.Run("Create and Get", func(t *testing.T) {
		run := sampleRun(time.Now().Add(-time.Hour))
		run.SetID("run-abc")

		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if run.Sequence() == 0 {
			t.Error("Create should assign a sequence")
		}

		got, err := repo.Get("run-abc")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.RowsTotal != 10 || got.Created != 4 || got.Updated != 5 {
			t.Errorf("got counts %d/%d/%d", got.RowsTotal, got.Created, got.Updated)
		}
		if !got.MailSent {
			t.Error("MailSent not persisted")
		}
		if !got.Succeeded() {
			t.Error("run without error should report success")
		}
	})

	t.Run("Create generates ID when absent", func(t *testing.T) {
		run := sampleRun(time.Now())
		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if run.ID() == "" {
			t.Error("Create should generate an ID")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := repo.Get("nope")
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("Get() error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		run := sampleRun(time.Now())
		run.SetID("run-upd")
		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		run.Error = "remote scan failed"
		run.Failed = 2
		if err := repo.Update(run); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := repo.Get("run-upd")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Error != "remote scan failed" || got.Failed != 2 {
			t.Errorf("got error=%q failed=%d", got.Error, got.Failed)
		}
		if got.Succeeded() {
			t.Error("run with error should not report success")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		run := sampleRun(time.Now())
		run.SetID("run-del")
		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := repo.Delete("run-del"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Get("run-del"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("Get after delete error = %v, want ErrRecordNotFound", err)
		}
		if err := repo.Delete("run-del"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("second Delete error = %v, want ErrRecordNotFound", err)
		}
	})
}

func TestSyncRunRepositoryList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncRunRepository(db)

	base := time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := sampleRun(base.Add(time.Duration(i) * 24 * time.Hour))
		run.DryRun = i == 2
		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("most recent first", func(t *testing.T) {
		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("len = %d, want 3", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].StartedAt.After(runs[i-1].StartedAt) {
				t.Error("runs not ordered by started_at desc")
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("len = %d, want 2", len(runs))
		}
	})

	t.Run("dry_run filter", func(t *testing.T) {
		runs, err := repo.List(map[string]any{"dry_run": true})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(runs) != 1 || !runs[0].DryRun {
			t.Errorf("runs = %d", len(runs))
		}
	})
}
