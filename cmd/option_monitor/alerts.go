package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"option_monitor/internal/audit"
	"option_monitor/internal/storage"

	"github.com/google/subcommands"
)

type alertsCmd struct {
	limit int
}

func (*alertsCmd) Name() string     { return "alerts" }
func (*alertsCmd) Synopsis() string { return "show the most recent alerts from the audit database" }
func (*alertsCmd) Usage() string {
	return `option_monitor alerts [-n <count>]

  Requires AUDIT_DB_PATH.
`
}

func (c *alertsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "Number of alerts to show.")
}

func (c *alertsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)
	if cfg.AuditDBPath == "" {
		return fail(errors.New("AUDIT_DB_PATH is not set"))
	}
	l, db, err := audit.OpenSQLite(ctx, cfg.AuditDBPath)
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	recs, err := l.Recent(ctx, c.limit)
	if err != nil {
		return fail(err)
	}
	if len(recs) == 0 {
		fmt.Println("No alerts recorded.")
	}
	for _, r := range recs {
		fmt.Printf("%s  %-22s %s  value %.3f %s %.3f\n", r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Type, r.Title, r.Value, r.ThresholdType, r.Threshold)
	}
	return subcommands.ExitSuccess
}

type clearCmd struct {
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete the saved session, defaults and spreads" }
func (*clearCmd) Usage() string {
	return `option_monitor clear -yes
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm deletion.")
}

func (c *clearCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return fail(errors.New("refusing to clear without -yes"))
	}
	store, err := storage.New(configFrom(args).StateDir)
	if err != nil {
		return fail(err)
	}
	if err := store.ClearAll(); err != nil {
		return fail(err)
	}
	fmt.Println("Saved state cleared.")
	return subcommands.ExitSuccess
}
