package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"option_monitor/internal/audit"
	"option_monitor/internal/config"
	"option_monitor/internal/discord"
	"option_monitor/internal/market/alpaca"
	"option_monitor/internal/metrics"
	"option_monitor/internal/monitor"
	"option_monitor/internal/notifications"
	"option_monitor/internal/storage"
	"option_monitor/internal/telegram"
	"option_monitor/internal/valuation"
	"option_monitor/internal/watcher"

	"github.com/google/subcommands"
)

type monitorCmd struct {
	interval int
}

func (*monitorCmd) Name() string     { return "monitor" }
func (*monitorCmd) Synopsis() string { return "reprice the book on an interval and fire threshold alerts" }
func (*monitorCmd) Usage() string {
	return `option_monitor monitor [-interval <minutes>]

  Polls market data for every leg, aggregates the portfolio, evaluates the
  configured thresholds and sends alerts until interrupted.
`
}

func (c *monitorCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.interval, "interval", 0, "Poll interval in minutes (defaults to the saved or configured interval).")
}

func (c *monitorCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)

	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := storage.New(cfg.StateDir)
	if err != nil {
		return fail(err)
	}

	if !cfg.HasMarketCredentials() {
		log.Println("Warning: APCA_API_KEY_ID / APCA_API_SECRET_KEY not set, market data requests will fail")
	}
	provider := alpaca.NewProvider(alpaca.Options{
		KeyID:         cfg.APCAKeyID,
		SecretKey:     cfg.APCASecretKey,
		RatePerMinute: cfg.MarketRatePerMin,
	})

	sinks, tg := buildSinks(cfg)
	rec, closeAudit, err := buildAudit(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	defer closeAudit()

	mon := monitor.New(sinks, rec, monitor.ParseMode(cfg.AlertMode))
	w, err := watcher.New(cfg, valuation.NewService(provider, cfg.RiskFreeRate), mon, sinks, store)
	if err != nil {
		return fail(err)
	}
	w.SetContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer srv.Shutdown(context.Background())
	}
	if tg != nil {
		go tg.Listen(ctx, w.HandleCommand)
	}

	// Setup Signal Handling (Graceful Shutdown)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	interval := w.Interval()
	if c.interval != 0 {
		interval = time.Duration(c.interval) * time.Minute
	}
	if err := w.Start(ctx, interval); err != nil {
		return fail(err)
	}
	log.Printf("Option Monitor %s Initialized", readVersion())
	log.Printf("Polling Interval: %s, alert mode: %s, legs: %d", interval, mon.Mode(), len(w.Positions()))
	if err := sinks.Notify("Monitoring Started", fmt.Sprintf("Monitoring %d legs every %s", len(w.Positions()), interval)); err != nil {
		log.Printf("Startup notification failed: %v", err)
	}

	select {
	case <-sig:
		log.Println("⚠️ Monitor Shutting Down: System signal received.")
		w.Stop()
		<-w.Done()
		return subcommands.ExitSuccess
	case <-w.Done():
	}
	// without a signal the loop only ends on a fatal error
	return exitFor(w.Err())
}

func exitFor(err error) subcommands.ExitStatus {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Monitoring stopped:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// buildSinks fans alerts out to the console and every configured chat.
func buildSinks(cfg *config.Config) (*notifications.Multi, *telegram.Client) {
	sinks := notifications.NewMulti(notifications.NewConsole(os.Stdout))

	var tg *telegram.Client
	if cfg.EnableTelegram {
		tg = telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID)
		sinks.Add(tg)
	}
	if cfg.DiscordEnabled() {
		d, err := discord.NewNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			log.Printf("Warning: Discord disabled: %v", err)
		} else {
			sinks.Add(d)
		}
	}
	return sinks, tg
}

// buildAudit records alerts as JSON files and, when configured, in SQLite.
func buildAudit(ctx context.Context, cfg *config.Config) (audit.Recorder, func(), error) {
	files, err := audit.NewFileLog(cfg.AlertsDir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AuditDBPath == "" {
		return files, func() {}, nil
	}
	sqlLog, db, err := audit.OpenSQLite(ctx, cfg.AuditDBPath)
	if err != nil {
		return nil, nil, err
	}
	return audit.Multi{files, sqlLog}, func() { db.Close() }, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	log.Printf("Metrics listening on %s/metrics", addr)
	return srv
}
