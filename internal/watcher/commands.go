package watcher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

// HandleCommand processes inbound chat commands.
func (w *Watcher) HandleCommand(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch parts[0] {
	case "/ping":
		return "Pong 🏓"
	case "/status":
		return w.getStatus()
	case "/legs":
		return w.getLegs()
	case "/spreads":
		return w.getSpreads()
	case "/poll":
		return w.handlePollCommand()
	case "/start":
		return w.handleStartCommand(parts)
	case "/stop":
		return w.handleStopCommand()
	case "/help":
		return w.getHelp()
	default:
		return "Unknown command. Try /status, /legs, /spreads, /poll, /start, /stop or /help."
	}
}

func (w *Watcher) handleStartCommand(parts []string) string {
	interval := w.Interval()
	if len(parts) > 1 {
		mins, err := strconv.Atoi(parts[1])
		if err != nil {
			return "Usage: /start [minutes]"
		}
		interval = time.Duration(mins) * time.Minute
	}

	w.runMu.Lock()
	ctx := w.baseCtx
	w.runMu.Unlock()

	switch err := w.Start(ctx, interval); {
	case errors.Is(err, ErrNoPositions):
		return "⚠️ No positions to monitor. Add a leg first."
	case errors.Is(err, ErrInvalidInterval):
		return "⚠️ Interval must be a positive number of minutes."
	case errors.Is(err, ErrAlreadyRunning):
		return "ℹ️ Monitoring is already running."
	case err != nil:
		return fmt.Sprintf("⚠️ Could not start: %v", err)
	}
	return fmt.Sprintf("✅ MONITORING STARTED. Polling every %s.", interval)
}

func (w *Watcher) handleStopCommand() string {
	if !w.Running() {
		return "ℹ️ Monitoring is not running."
	}
	w.Stop()
	return "🛑 MONITORING STOPPED."
}

func (w *Watcher) handlePollCommand() string {
	w.runMu.Lock()
	ctx := w.baseCtx
	w.runMu.Unlock()

	rep, err := w.Poll(ctx)
	if err != nil {
		return fmt.Sprintf("⚠️ Poll failed: %v", err)
	}
	return rep.String()
}

func (w *Watcher) getLegs() string {
	positions := w.Positions()
	if len(positions) == 0 {
		return "No positions."
	}
	var sb strings.Builder
	sb.WriteString("📋 *POSITIONS*\n")
	for _, p := range positions {
		sb.WriteString(fmt.Sprintf("%d. %s x%d @ $%s", p.LegNumber, p.Label(), p.Quantity, p.EntryCost.StringFixed(2)))
		if p.Remark != "" {
			sb.WriteString(" (" + p.Remark + ")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (w *Watcher) getSpreads() string {
	spreads := w.Spreads()
	if len(spreads) == 0 {
		return "No spreads."
	}
	latest := make(map[string]string)
	if rep := w.LastReport(); rep != nil {
		for _, sr := range rep.Spreads {
			latest[sr.Spread.Name] = spreadLine(sr)
		}
	}

	var sb strings.Builder
	sb.WriteString("🔗 *SPREADS*\n")
	for _, s := range spreads {
		if line, ok := latest[s.Name]; ok {
			sb.WriteString(line)
		} else {
			sb.WriteString("• " + s.Name)
		}
		legs := make([]string, len(s.Legs))
		for i, l := range s.Legs {
			legs[i] = strconv.Itoa(l)
		}
		sb.WriteString(fmt.Sprintf(" [legs %s]\n", strings.Join(legs, ",")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (w *Watcher) getHelp() string {
	var sb strings.Builder
	sb.WriteString("🤖 *COMMANDS*\n")
	for _, c := range w.commands {
		sb.WriteString(fmt.Sprintf("%s - %s\n  `%s`\n", c.Name, c.Description, c.Example))
	}
	return strings.TrimRight(sb.String(), "\n")
}
