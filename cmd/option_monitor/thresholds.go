package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type thresholdsCmd struct {
	pnlUpper    optionalFloat
	pnlLower    optionalFloat
	deltaUpper  optionalFloat
	deltaLower  optionalFloat
	pnlRemark   string
	deltaRemark string
}

func (*thresholdsCmd) Name() string     { return "thresholds" }
func (*thresholdsCmd) Synopsis() string { return "show or change the portfolio alert thresholds" }
func (*thresholdsCmd) Usage() string {
	return `option_monitor thresholds [-pnl-upper <pct>] [-pnl-lower <pct>] [-delta-upper <d>] [-delta-lower <d>] [-pnl-remark <text>] [-delta-remark <text>]

  Only the flags given are changed. Pass "none" to disable a threshold.
  Without flags the current thresholds are printed.
`
}

func (c *thresholdsCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.pnlUpper, "pnl-upper", "Upper P&L threshold in percent of the initial value.")
	f.Var(&c.pnlLower, "pnl-lower", "Lower P&L threshold in percent of the initial value.")
	f.Var(&c.deltaUpper, "delta-upper", "Upper total delta threshold.")
	f.Var(&c.deltaLower, "delta-lower", "Lower total delta threshold.")
	f.StringVar(&c.pnlRemark, "pnl-remark", "", "Remark added to P&L alerts.")
	f.StringVar(&c.deltaRemark, "delta-remark", "", "Remark added to delta alerts.")
}

func (c *thresholdsCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}

	th := w.Thresholds()
	changed := false
	f.Visit(func(fl *flag.Flag) {
		changed = true
		switch fl.Name {
		case "pnl-upper":
			th.PnLPctUpper = c.pnlUpper.v
		case "pnl-lower":
			th.PnLPctLower = c.pnlLower.v
		case "delta-upper":
			th.DeltaUpper = c.deltaUpper.v
		case "delta-lower":
			th.DeltaLower = c.deltaLower.v
		case "pnl-remark":
			th.PnLRemark = c.pnlRemark
		case "delta-remark":
			th.DeltaRemark = c.deltaRemark
		}
	})
	if changed {
		if err := w.SetThresholds(th); err != nil {
			return fail(err)
		}
	}

	fmt.Printf("P&L %%:  lower %s, upper %s", formatOptional(th.PnLPctLower), formatOptional(th.PnLPctUpper))
	if th.PnLRemark != "" {
		fmt.Printf(" (%s)", th.PnLRemark)
	}
	fmt.Printf("\nDelta:  lower %s, upper %s", formatOptional(th.DeltaLower), formatOptional(th.DeltaUpper))
	if th.DeltaRemark != "" {
		fmt.Printf(" (%s)", th.DeltaRemark)
	}
	fmt.Println()
	return subcommands.ExitSuccess
}
