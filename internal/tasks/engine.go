// package tasks implements the roster reconciliation pipeline.
//
// The core abstraction is SyncEngine, which runs one sync: fetch the roster
// CSV, build member records, scan the remote store, apply create-vs-update
// writes under a rate limit and retry policy, then export contacts by mail.
// Runs emit progress updates via channels for non-blocking status reporting
// to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/roster"
	"github.com/kelarin/rosync/internal/services"
	"github.com/kelarin/rosync/internal/shared"
)

// DefaultRateLimit is the request rate used against the remote store when
// none is configured, chosen to stay under the service's published limit.
const DefaultRateLimit = 2.5

// defaultFilename names the contact bundle attachment.
const defaultFilename = "members.vcf"

// RowFailure records one member whose remote write was abandoned after the
// retry budget ran out.
type RowFailure struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// SyncResult contains all counts from a full sync run. All state is scoped
// to the run; the remote store is the only durable output.
type SyncResult struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	RowsTotal  int          `json:"rows_total"`
	Skipped    int          `json:"skipped"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Failed     int          `json:"failed"`
	Exported   int          `json:"exported"`
	MailSent   bool         `json:"mail_sent"`
	DryRun     bool         `json:"dry_run"`
	Failures   []RowFailure `json:"failures,omitempty"`
}

// Duration returns the wall-clock time the run took.
func (r *SyncResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Engine defines the roster reconciliation pipeline.
type Engine interface {
	// Run executes one full sync and returns its result. The result is
	// non-nil even on error so partial counts survive a fatal abort.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// EngineOptions carries the per-deployment knobs for a SyncEngine.
type EngineOptions struct {
	Columns       roster.ColumnMapping // fixed positional mapping
	DetectColumns bool                 // resolve the mapping from the header row instead
	HeaderRow     bool                 // first roster row is a header, not data
	CountryPrefix string               // phone normalization prefix
	RateLimit     float64              // remote store requests per second
	Retry         RetryPolicy
	DryRun        bool // compute decisions without writing or mailing
	Bundle        func([]models.Member) []byte
	Filename      string
}

// SyncEngine implements Engine against a roster feed, a remote record store,
// and a mailer.
type SyncEngine struct {
	feed    services.RosterFeed
	store   services.RecordStore
	mailer  services.Mailer
	limiter *rate.Limiter
	retry   RetryPolicy
	opts    EngineOptions
	logger  *log.Logger
}

// NewSyncEngine creates a SyncEngine with the provided collaborators.
// Zero-valued options fall back to defaults.
func NewSyncEngine(feed services.RosterFeed, store services.RecordStore, mailer services.Mailer, logger *log.Logger, opts EngineOptions) *SyncEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.CountryPrefix == "" {
		opts.CountryPrefix = roster.DefaultCountryPrefix
	}
	if opts.Filename == "" {
		opts.Filename = defaultFilename
	}
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &SyncEngine{
		feed:    feed,
		store:   store,
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		retry:   opts.Retry,
		opts:    opts,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run executes one full sync.
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	result := &SyncResult{
		RunID:     shared.GenerateID(),
		StartedAt: time.Now(),
		DryRun:    e.opts.DryRun,
	}

	err := e.run(ctx, progress, result)
	result.FinishedAt = time.Now()
	return result, err
}

func (e *SyncEngine) run(ctx context.Context, progress chan<- ProgressUpdate, result *SyncResult) error {
	if e.feed == nil {
		return fmt.Errorf("%w: roster feed not initialized", shared.ErrServiceUnavailable)
	}
	if e.store == nil {
		return fmt.Errorf("%w: record store not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchRosterUpdate())

	data, err := e.feed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("roster fetch failed: %w", err)
	}

	rows := roster.Parse(data)
	if len(rows) == 0 {
		return fmt.Errorf("%w: roster contained no rows", shared.ErrEmptyFeed)
	}

	members, skipped, err := BuildRoster(rows, e.opts)
	if err != nil {
		return err
	}
	result.RowsTotal = len(members) + skipped
	result.Skipped = skipped

	e.sendProgress(progress, parseRosterUpdate(len(members), skipped))

	index, err := e.scanRemote(ctx, progress)
	if err != nil {
		return fmt.Errorf("remote scan failed: %w", err)
	}

	if err := e.writeRecords(ctx, progress, members, index, result); err != nil {
		return err
	}
	e.exportContacts(ctx, progress, members, result)
	return nil
}

// BuildRoster resolves the column mapping and converts data rows into member
// records. Header detection requires a header row; without one the fixed
// positional mapping applies and phone columns are scanned rightward.
func BuildRoster(rows [][]string, opts EngineOptions) ([]models.Member, int, error) {
	mapping := opts.Columns
	scanPhones := true

	if opts.HeaderRow && len(rows) > 0 {
		header := rows[0]
		rows = rows[1:]
		if opts.DetectColumns {
			mapping = roster.DetectColumns(header)
			scanPhones = false
		}
	}

	if mapping.ID == roster.NotFound {
		return nil, 0, fmt.Errorf("%w: no identifier column in roster header", shared.ErrValidation)
	}
	if mapping.Title == roster.NotFound && mapping.First == roster.NotFound && mapping.Last == roster.NotFound {
		return nil, 0, fmt.Errorf("%w: no name columns in roster header", shared.ErrValidation)
	}

	prefix := opts.CountryPrefix
	if prefix == "" {
		prefix = roster.DefaultCountryPrefix
	}

	builder := roster.Builder{
		Mapping:    mapping,
		Phones:     roster.NewNormalizer(prefix),
		ScanPhones: scanPhones,
	}
	members, skipped := builder.BuildMembers(rows)
	return members, skipped, nil
}

// scanRemote walks the store's pagination cursor and indexes every record by
// its member identifier. Each page request waits on the rate limiter and is
// retry-wrapped; exhaustion here aborts the run.
func (e *SyncEngine) scanRemote(ctx context.Context, progress chan<- ProgressUpdate) (map[string]services.RemoteRecord, error) {
	index := make(map[string]services.RemoteRecord)
	cursor := ""
	pages := 0

	for {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var page *services.RecordPage
		err := e.retry.Do(ctx, func(ctx context.Context) error {
			var queryErr error
			page, queryErr = e.store.QueryPage(ctx, cursor)
			return queryErr
		})
		if err != nil {
			return nil, err
		}

		pages++
		for _, rec := range page.Records {
			if rec.MemberID != "" {
				index[rec.MemberID] = rec
			}
		}
		e.sendProgress(progress, scanRemoteUpdate(pages, len(index)))

		if !page.HasMore || page.NextCursor == "" {
			return index, nil
		}
		cursor = page.NextCursor
	}
}

// writeRecords applies the create-vs-update decision per member. Exhausted
// retries become per-row failures; the run continues with the next member.
// Only context cancellation aborts the phase.
func (e *SyncEngine) writeRecords(ctx context.Context, progress chan<- ProgressUpdate, members []models.Member, index map[string]services.RemoteRecord, result *SyncResult) error {
	total := len(members)

	for i, m := range members {
		existing, found := index[m.ID]

		action := "create"
		if found {
			action = "update"
		}
		e.sendProgress(progress, writeRecordUpdate(i+1, total, m.ID, action))

		if e.opts.DryRun {
			if found {
				result.Updated++
			} else {
				result.Created++
			}
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		var err error
		if found {
			err = e.retry.Do(ctx, func(ctx context.Context) error {
				return e.store.UpdateRecord(ctx, existing.PageID, m)
			})
		} else {
			err = e.retry.Do(ctx, func(ctx context.Context) error {
				_, createErr := e.store.CreateRecord(ctx, m)
				return createErr
			})
		}

		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, RowFailure{MemberID: m.ID, Reason: err.Error()})
			e.logger.Warn("record write abandoned", "member", m.ID, "action", action, "error", err)
			continue
		}

		if found {
			result.Updated++
		} else {
			result.Created++
		}
	}

	return nil
}

// exportContacts mails the contact bundle for members with a phone. Zero
// qualifying members skips the mail entirely; a transport failure is logged
// and never aborts or retries.
func (e *SyncEngine) exportContacts(ctx context.Context, progress chan<- ProgressUpdate, members []models.Member, result *SyncResult) {
	contacts := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.HasPhone() {
			contacts = append(contacts, m)
		}
	}
	result.Exported = len(contacts)

	if len(contacts) == 0 {
		e.logger.Info("no contacts with phone numbers, skipping mail")
		return
	}

	e.sendProgress(progress, exportContactsUpdate(len(contacts)))

	if e.opts.DryRun || e.mailer == nil || e.opts.Bundle == nil {
		return
	}

	bundle := e.opts.Bundle(contacts)
	subject := fmt.Sprintf("Membership contacts: %d entries", len(contacts))
	body := fmt.Sprintf("Attached are %d member contacts from sync run %s.", len(contacts), result.RunID)

	if err := e.mailer.SendContacts(ctx, subject, body, bundle, e.opts.Filename); err != nil {
		e.logger.Error("contact mail failed", "error", err)
		return
	}
	result.MailSent = true
}
