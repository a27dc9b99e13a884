package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"option_monitor/internal/config"
	"option_monitor/internal/logger"
	"option_monitor/internal/storage"
	"option_monitor/internal/watcher"

	"github.com/google/subcommands"
)

const VersionFile = "version.latest"

var commands = []subcommands.Command{
	&monitorCmd{},
	&bscalcCmd{},
	&legsCmd{},
	&addOptionCmd{},
	&addStockCmd{},
	&removeLegCmd{},
	&editLegCmd{},
	&spreadsCmd{},
	&addSpreadCmd{},
	&removeSpreadCmd{},
	&thresholdsCmd{},
	&alertsCmd{},
	&clearCmd{},
}

// main is the entry point of the application.
func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}
	flag.Parse()

	// Load configuration first to get logger settings
	cfg := config.Load()
	logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)

	os.Exit(int(commander.Execute(context.Background(), cfg)))
}

func configFrom(args []interface{}) *config.Config {
	if len(args) > 0 {
		if cfg, ok := args[0].(*config.Config); ok {
			return cfg
		}
	}
	return config.Load()
}

// openBook returns a watcher over the saved session, for commands that only
// read or edit the book.
func openBook(cfg *config.Config) (*watcher.Watcher, *storage.Store, error) {
	store, err := storage.New(cfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	w, err := watcher.New(cfg, nil, nil, nil, store)
	if err != nil {
		return nil, nil, err
	}
	return w, store, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}

// optionalFloat is a flag that records whether it was set.
type optionalFloat struct {
	v *float64
}

func (o *optionalFloat) String() string {
	if o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'f', -1, 64)
}

func (o *optionalFloat) Set(s string) error {
	if s == "" || strings.EqualFold(s, "none") {
		o.v = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.v = &f
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// parseLegList parses "1,2,3".
func parseLegList(s string) ([]int, error) {
	var legs []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid leg number %q", part)
		}
		legs = append(legs, n)
	}
	return legs, nil
}
