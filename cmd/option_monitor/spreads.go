package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"option_monitor/internal/models"

	"github.com/google/subcommands"
)

type spreadsCmd struct{}

func (*spreadsCmd) Name() string     { return "spreads" }
func (*spreadsCmd) Synopsis() string { return "list the saved spreads" }
func (*spreadsCmd) Usage() string {
	return `option_monitor spreads
`
}
func (*spreadsCmd) SetFlags(*flag.FlagSet) {}

func (*spreadsCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	spreads := w.Spreads()
	if len(spreads) == 0 {
		fmt.Println("No spreads.")
		return subcommands.ExitSuccess
	}
	for _, s := range spreads {
		legs := make([]string, len(s.Legs))
		for i, l := range s.Legs {
			legs[i] = fmt.Sprint(l)
		}
		fmt.Printf("%s: legs %s, price %s..%s, delta %s..%s", s.Name, strings.Join(legs, ","),
			formatOptional(s.PriceTargetLower), formatOptional(s.PriceTargetUpper),
			formatOptional(s.DeltaTargetLower), formatOptional(s.DeltaTargetUpper))
		if s.Remark != "" {
			fmt.Printf(" (%s)", s.Remark)
		}
		fmt.Println()
	}
	return subcommands.ExitSuccess
}

type addSpreadCmd struct {
	name       string
	legs       string
	remark     string
	replace    bool
	priceUpper optionalFloat
	priceLower optionalFloat
	deltaUpper optionalFloat
	deltaLower optionalFloat
}

func (*addSpreadCmd) Name() string     { return "add-spread" }
func (*addSpreadCmd) Synopsis() string { return "define a spread over existing legs" }
func (*addSpreadCmd) Usage() string {
	return `option_monitor add-spread -name <name> -legs 1,2 [-price-upper <p>] [-price-lower <p>] [-delta-upper <d>] [-delta-lower <d>] [-replace]

  Price targets are magnitudes per one unit of spread; delta targets are
  signed.
`
}

func (c *addSpreadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Unique spread name.")
	f.StringVar(&c.legs, "legs", "", "Comma separated leg numbers.")
	f.StringVar(&c.remark, "remark", "", "Free text carried into alerts.")
	f.BoolVar(&c.replace, "replace", false, "Replace an existing spread of the same name.")
	f.Var(&c.priceUpper, "price-upper", "Upper price target.")
	f.Var(&c.priceLower, "price-lower", "Lower price target.")
	f.Var(&c.deltaUpper, "delta-upper", "Upper delta target.")
	f.Var(&c.deltaLower, "delta-lower", "Lower delta target.")
}

func (c *addSpreadCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	legs, err := parseLegList(c.legs)
	if err != nil {
		return fail(err)
	}
	s := models.Spread{
		Name:             c.name,
		Legs:             legs,
		PriceTargetUpper: c.priceUpper.v,
		PriceTargetLower: c.priceLower.v,
		DeltaTargetUpper: c.deltaUpper.v,
		DeltaTargetLower: c.deltaLower.v,
		Remark:           c.remark,
	}
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	if c.replace {
		err = w.UpdateSpread(c.name, s)
	} else {
		err = w.AddSpread(s)
	}
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Saved spread %s\n", s.Name)
	return subcommands.ExitSuccess
}

type removeSpreadCmd struct{}

func (*removeSpreadCmd) Name() string     { return "remove-spread" }
func (*removeSpreadCmd) Synopsis() string { return "delete a spread" }
func (*removeSpreadCmd) Usage() string {
	return `option_monitor remove-spread <name>
`
}
func (*removeSpreadCmd) SetFlags(*flag.FlagSet) {}

func (*removeSpreadCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: remove-spread <name>")
		return subcommands.ExitUsageError
	}
	w, _, err := openBook(configFrom(args))
	if err != nil {
		return fail(err)
	}
	if err := w.RemoveSpread(f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Printf("Removed spread %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}
