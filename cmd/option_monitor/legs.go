package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"option_monitor/internal/config"
	"option_monitor/internal/models"
	"option_monitor/internal/storage"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type legsCmd struct{}

func (*legsCmd) Name() string     { return "legs" }
func (*legsCmd) Synopsis() string { return "list the positions of the book" }
func (*legsCmd) Usage() string {
	return `option_monitor legs

  Lists every leg with its number, quantity, entry cost and remark.
`
}
func (*legsCmd) SetFlags(*flag.FlagSet) {}

func (*legsCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	positions := w.Positions()
	if len(positions) == 0 {
		fmt.Println("No positions.")
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEG\tPOSITION\tQTY\tENTRY\tDATE\tREMARK")
	for _, p := range positions {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", p.LegNumber, p.Label(), p.Quantity, p.EntryCost.StringFixed(2), p.EntryDate, p.Remark)
	}
	tw.Flush()
	return subcommands.ExitSuccess
}

// positionFlags are shared by add-option, add-stock and edit-leg.
type positionFlags struct {
	market     string
	underlying string
	qty        int
	cost       string
	remark     string
}

func (p *positionFlags) set(f *flag.FlagSet) {
	f.StringVar(&p.market, "market", "", "Market code (defaults to the saved position default, usually US).")
	f.StringVar(&p.underlying, "u", "", "Underlying ticker.")
	f.IntVar(&p.qty, "q", 0, "Signed quantity, negative for short.")
	f.StringVar(&p.cost, "cost", "0", "Entry cost per share.")
	f.StringVar(&p.remark, "remark", "", "Free text carried into alerts.")
}

func (p *positionFlags) resolve(store *storage.Store) (string, decimal.Decimal, error) {
	cost, err := decimal.NewFromString(p.cost)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid entry cost %q", p.cost)
	}
	market := p.market
	if market == "" {
		market = "US"
		if d, err := store.LoadDefaults(); err == nil && d["position"]["market"] != "" {
			market = d["position"]["market"]
		}
	}
	return market, cost, nil
}

type addOptionCmd struct {
	positionFlags
	strike float64
	typ    string
	expiry string
}

func (*addOptionCmd) Name() string     { return "add-option" }
func (*addOptionCmd) Synopsis() string { return "add an option leg" }
func (*addOptionCmd) Usage() string {
	return `option_monitor add-option -u <ticker> -strike <k> -type <CALL|PUT> -expiry <YYYY-MM-DD> -q <qty> [-cost <c>] [-remark <text>]
`
}

func (c *addOptionCmd) SetFlags(f *flag.FlagSet) {
	c.positionFlags.set(f)
	f.Float64Var(&c.strike, "strike", 0, "Strike price.")
	f.StringVar(&c.typ, "type", "CALL", "CALL or PUT (C/P accepted).")
	f.StringVar(&c.expiry, "expiry", "", "Expiry date, YYYY-MM-DD.")
}

func (c *addOptionCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w, store, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	market, cost, err := c.resolve(store)
	if err != nil {
		return fail(err)
	}
	typ, err := models.ParseOptionType(c.typ)
	if err != nil {
		return fail(err)
	}
	expiry, err := time.Parse(models.DateLayout, c.expiry)
	if err != nil {
		return fail(fmt.Errorf("invalid expiry %q, want YYYY-MM-DD", c.expiry))
	}
	p, err := models.NewOptionPosition(market, c.underlying, c.strike, typ, expiry, c.qty, cost, c.remark)
	if err != nil {
		return fail(err)
	}
	n, err := w.AddPosition(p)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Added leg %d: %s x%d\n", n, p.Label(), p.Quantity)
	return subcommands.ExitSuccess
}

type addStockCmd struct {
	positionFlags
	shortRate float64
}

func (*addStockCmd) Name() string     { return "add-stock" }
func (*addStockCmd) Synopsis() string { return "add a stock leg" }
func (*addStockCmd) Usage() string {
	return `option_monitor add-stock -u <ticker> -q <qty> [-cost <c>] [-short-rate <pct>] [-remark <text>]
`
}

func (c *addStockCmd) SetFlags(f *flag.FlagSet) {
	c.positionFlags.set(f)
	f.Float64Var(&c.shortRate, "short-rate", 0, "Annual borrow rate in percent, used for short legs.")
}

func (c *addStockCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w, store, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	market, cost, err := c.resolve(store)
	if err != nil {
		return fail(err)
	}
	p, err := models.NewStockPosition(market, c.underlying, c.qty, cost, c.shortRate, c.remark)
	if err != nil {
		return fail(err)
	}
	n, err := w.AddPosition(p)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Added leg %d: %s x%d\n", n, p.Label(), p.Quantity)
	return subcommands.ExitSuccess
}

type removeLegCmd struct{}

func (*removeLegCmd) Name() string     { return "remove-leg" }
func (*removeLegCmd) Synopsis() string { return "remove a leg and renumber the rest" }
func (*removeLegCmd) Usage() string {
	return `option_monitor remove-leg <leg>

  Removes the leg. Later legs move down by one and spreads are rewritten to
  follow them; spreads that used the removed leg no longer resolve.
`
}
func (*removeLegCmd) SetFlags(*flag.FlagSet) {}

func (*removeLegCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: remove-leg <leg>")
		return subcommands.ExitUsageError
	}
	leg, err := strconv.Atoi(f.Arg(0))
	if err != nil {
		return fail(fmt.Errorf("invalid leg number %q", f.Arg(0)))
	}
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	if err := w.RemoveLeg(leg); err != nil {
		return fail(err)
	}
	fmt.Printf("Removed leg %d, %d legs left\n", leg, len(w.Positions()))
	return subcommands.ExitSuccess
}

type editLegCmd struct {
	positionFlags
	strike    float64
	typ       string
	expiry    string
	shortRate float64
}

func (*editLegCmd) Name() string     { return "edit-leg" }
func (*editLegCmd) Synopsis() string { return "change a leg; it moves to the end of the book" }
func (*editLegCmd) Usage() string {
	return `option_monitor edit-leg [-u <ticker>] [-q <qty>] [-cost <c>] [-remark <text>]
    [-strike <k>] [-type <CALL|PUT>] [-expiry <YYYY-MM-DD>] [-short-rate <pct>] <leg>

  Only the flags given are changed. The edited leg is re-added as the last
  leg and spreads that used it follow it to its new number.
`
}

func (c *editLegCmd) SetFlags(f *flag.FlagSet) {
	c.positionFlags.set(f)
	f.Float64Var(&c.strike, "strike", 0, "Strike price, option legs only.")
	f.StringVar(&c.typ, "type", "", "CALL or PUT, option legs only.")
	f.StringVar(&c.expiry, "expiry", "", "Expiry date YYYY-MM-DD, option legs only.")
	f.Float64Var(&c.shortRate, "short-rate", 0, "Annual borrow rate in percent, stock legs only.")
}

func (c *editLegCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: edit-leg [flags] <leg>")
		return subcommands.ExitUsageError
	}
	leg, err := strconv.Atoi(f.Arg(0))
	if err != nil {
		return fail(fmt.Errorf("invalid leg number %q", f.Arg(0)))
	}
	p, n, err := c.run(configFrom(args), leg, setFlags(f))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Edited leg %d, now leg %d: %s x%d\n", leg, n, p.Label(), p.Quantity)
	return subcommands.ExitSuccess
}

func (c *editLegCmd) run(cfg *config.Config, leg int, set map[string]bool) (models.Position, int, error) {
	w, _, err := openBook(cfg)
	if err != nil {
		return models.Position{}, 0, err
	}
	positions := w.Positions()
	if leg < 1 || leg > len(positions) {
		return models.Position{}, 0, fmt.Errorf("no leg %d, the book has %d", leg, len(positions))
	}
	p, err := c.apply(positions[leg-1], set)
	if err != nil {
		return models.Position{}, 0, err
	}
	n, err := w.EditLeg(leg, p)
	return p, n, err
}

// apply overlays the flags that were set onto a copy of p.
func (c *editLegCmd) apply(p models.Position, set map[string]bool) (models.Position, error) {
	if set["market"] {
		p.Market = strings.ToUpper(strings.TrimSpace(c.market))
	}
	if set["u"] {
		p.Underlying = strings.ToUpper(strings.TrimSpace(c.underlying))
	}
	if set["q"] {
		p.Quantity = c.qty
	}
	if set["cost"] {
		cost, err := decimal.NewFromString(c.cost)
		if err != nil {
			return p, fmt.Errorf("invalid entry cost %q", c.cost)
		}
		p.EntryCost = cost
	}
	if set["remark"] {
		p.Remark = c.remark
	}

	if !p.IsOption() {
		for _, name := range []string{"strike", "type", "expiry"} {
			if set[name] {
				return p, fmt.Errorf("-%s applies to option legs only", name)
			}
		}
		stock := *p.Stock
		if set["short-rate"] {
			stock.ShortInterestRate = c.shortRate
		}
		p.Stock = &stock
		return p, p.Validate()
	}

	if set["short-rate"] {
		return p, fmt.Errorf("-short-rate applies to stock legs only")
	}
	opt := *p.Option
	if set["strike"] {
		opt.Strike = c.strike
	}
	if set["type"] {
		typ, err := models.ParseOptionType(c.typ)
		if err != nil {
			return p, err
		}
		opt.Type = typ
	}
	if set["expiry"] {
		expiry, err := time.Parse(models.DateLayout, c.expiry)
		if err != nil {
			return p, fmt.Errorf("invalid expiry %q, want YYYY-MM-DD", c.expiry)
		}
		opt.Expiry = expiry.Format(models.DateLayout)
	}
	p.Option = &opt
	return p, p.Validate()
}

// setFlags reports which flags were given on the command line.
func setFlags(f *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}
