// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// syncCommand handles reconciliation runs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the roster with the remote record store",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one sync and exit",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Compute create/update decisions without writing or mailing",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run result as JSON",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Suppress per-record progress output",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "watch",
				Usage: "Run continuously on the configured interval",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.SyncWatch,
			},
		},
	}
}

// rosterCommand handles roster inspection without touching the remote store
func rosterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "roster",
		Usage: "Roster feed operations",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Fetch and parse the roster, reporting member counts",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output members as JSON",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of members to print",
						Value: 20,
					},
				},
				Action: r.RosterPreview,
			},
		},
	}
}

// exportCommand writes the contact bundle locally instead of mailing it
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export contact bundles",
		Commands: []*cli.Command{
			{
				Name:  "vcf",
				Usage: "Write members with phones as a vCard bundle",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "members.vcf",
					},
				},
				Action: r.ExportVCF,
			},
		},
	}
}

// historyCommand inspects recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Sync run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output runs as JSON",
					},
				},
				Action: r.HistoryList,
			},
		},
	}
}

// setupCommand handles setup operations for the local database and config.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the run-history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// tuiCommand launches the run-history browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse sync run history interactively",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
