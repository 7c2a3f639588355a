package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kelarin/rosync/internal/formatter"
	"github.com/kelarin/rosync/internal/roster"
	"github.com/kelarin/rosync/internal/services"
	"github.com/kelarin/rosync/internal/shared"
	"github.com/kelarin/rosync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built from configuration on first use; injected instances
// (tests) take precedence.
type Runner struct {
	config     *shared.Config
	feed       services.RosterFeed
	store      services.RecordStore
	mailer     services.Mailer
	engine     tasks.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Feed       services.RosterFeed
	Store      services.RecordStore
	Mailer     services.Mailer
	Engine     tasks.Engine
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		feed:       opts.Feed,
		store:      opts.Store,
		mailer:     opts.Mailer,
		engine:     opts.Engine,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, rosterCommand, exportCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, e.g. to redirect logs to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// reloadConfig swaps in the config file named by the command's --config flag
// when it exists. Load failures keep the current config and log a warning.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return
	}
	r.config = config
}

// buildFeed returns the roster feed, constructing one from configuration
// unless an instance was injected.
func (r *Runner) buildFeed() (services.RosterFeed, error) {
	if r.feed != nil {
		return r.feed, nil
	}
	if err := r.config.ValidateRoster(); err != nil {
		return nil, err
	}
	return services.NewSheetFeed(r.config.Roster.URL, r.config.Roster.CacheBust, r.httpClient), nil
}

func (r *Runner) buildStore() (services.RecordStore, error) {
	if r.store != nil {
		return r.store, nil
	}
	if err := r.config.ValidateStore(); err != nil {
		return nil, err
	}

	store := r.config.Store
	props := services.PropertyNames{
		ID:    store.IDProperty,
		Name:  store.NameProperty,
		Phone: store.PhoneProperty,
	}
	return services.NewNotionStore(store.BaseURL, store.Token, store.DatabaseID, props, store.PageSize), nil
}

func (r *Runner) buildMailer() (services.Mailer, error) {
	if r.mailer != nil {
		return r.mailer, nil
	}
	if err := r.config.ValidateMail(); err != nil {
		return nil, err
	}

	mail := r.config.Mail
	return services.NewMailgunMailer(mail.BaseURL, mail.APIKey, mail.Sender, mail.Recipient, r.httpClient), nil
}

// buildEngine wires a sync engine from the configured services. Missing
// credentials surface here, before any run starts.
func (r *Runner) buildEngine(dryRun bool) (tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	feed, err := r.buildFeed()
	if err != nil {
		return nil, err
	}
	store, err := r.buildStore()
	if err != nil {
		return nil, err
	}
	mailer, err := r.buildMailer()
	if err != nil {
		return nil, err
	}

	opts := r.engineOptions(dryRun)
	return tasks.NewSyncEngine(feed, store, mailer, r.logger, opts), nil
}

// engineOptions maps configuration onto engine options.
func (r *Runner) engineOptions(dryRun bool) tasks.EngineOptions {
	columns := r.config.Roster.Columns
	return tasks.EngineOptions{
		Columns: roster.ColumnMapping{
			ID:    columns.ID,
			Title: columns.Title,
			First: columns.First,
			Last:  columns.Last,
			Phone: columns.Phone,
		},
		DetectColumns: columns.Mode != "fixed",
		HeaderRow:     r.config.Roster.HeaderRow,
		CountryPrefix: r.config.Roster.CountryPrefix,
		RateLimit:     r.config.Store.RateLimit,
		Retry:         r.retryPolicy(),
		DryRun:        dryRun,
		Bundle:        formatter.ContactBundle,
	}
}

// retryPolicy builds the configured retry policy. Mode "always" retries every
// error; anything else retries transient errors only.
func (r *Runner) retryPolicy() tasks.RetryPolicy {
	policy := tasks.DefaultRetryPolicy()
	if r.config.Sync.RetryAttempts > 0 {
		policy.Attempts = r.config.Sync.RetryAttempts
	}
	if r.config.Sync.RetryBackoffMS > 0 {
		policy.Backoff = time.Duration(r.config.Sync.RetryBackoffMS) * time.Millisecond
	}
	if r.config.Sync.RetryMode == "always" {
		policy.Retryable = func(error) bool { return true }
	}
	return policy
}

// openHistory opens the run-history database, running migrations on first use.
func (r *Runner) openHistory() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
