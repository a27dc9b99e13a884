package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"option_monitor/internal/config"
	"option_monitor/internal/market/alpaca"
	"option_monitor/internal/models"
	"option_monitor/internal/pricer"
	"option_monitor/internal/storage"

	"github.com/google/subcommands"
)

type bscalcCmd struct {
	spot   float64
	vol    float64
	rate   optionalFloat
	mult   int
	ticker string
	market string
	save   bool
}

func (*bscalcCmd) Name() string     { return "bscalc" }
func (*bscalcCmd) Synopsis() string { return "price hypothetical option legs with Black-Scholes" }
func (*bscalcCmd) Usage() string {
	return `option_monitor bscalc [-spot <s> | -ticker <t>] -vol <sigma> [-rate <r>] <strike:dte:C|P:qty>...

  Values each leg at one spot, volatility and rate and prints per-leg
  Greeks with multiplier scaled totals. With -ticker and no -spot the spot
  is fetched from market data. -save stores the inputs in the session.
`
}

func (c *bscalcCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.spot, "spot", 0, "Underlying price.")
	f.Float64Var(&c.vol, "vol", 0.2, "Annual volatility as a fraction.")
	f.Var(&c.rate, "rate", "Annual risk-free rate as a fraction, may be negative (defaults to RISK_FREE_RATE).")
	f.IntVar(&c.mult, "mult", 0, "Contract multiplier (defaults to CONTRACT_MULTIPLIER).")
	f.StringVar(&c.ticker, "ticker", "", "Underlying ticker, used to fetch the spot.")
	f.StringVar(&c.market, "market", "US", "Market code saved with the inputs.")
	f.BoolVar(&c.save, "save", false, "Save the inputs to the session.")
}

// riskFreeRate is the -rate flag when given, otherwise the configured rate.
func (c *bscalcCmd) riskFreeRate(cfg *config.Config) float64 {
	if c.rate.v != nil {
		return *c.rate.v
	}
	return cfg.RiskFreeRate
}

func (c *bscalcCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)
	legs, err := parseScenarioLegs(f.Args())
	if err != nil {
		return fail(err)
	}
	rate := c.riskFreeRate(cfg)
	if c.mult <= 0 {
		c.mult = cfg.ContractMultiplier
	}
	if c.spot <= 0 && c.ticker != "" {
		p := alpaca.NewProvider(alpaca.Options{KeyID: cfg.APCAKeyID, SecretKey: cfg.APCASecretKey, RatePerMinute: cfg.MarketRatePerMin})
		spot, err := p.GetSpotPrice(ctx, strings.ToUpper(c.ticker))
		if err != nil {
			return fail(fmt.Errorf("fetch spot for %s: %w", c.ticker, err))
		}
		c.spot = spot
	}

	res, err := pricer.Evaluate(pricer.ScenarioInput{
		Spot:       c.spot,
		Volatility: c.vol,
		Rate:       rate,
		Multiplier: c.mult,
		Legs:       legs,
	})
	if err != nil {
		return fail(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "STRIKE\tDTE\tTYPE\tQTY\tPRICE\tDELTA\tGAMMA\tVEGA\tTHETA\tRHO\tVALUE\t")
	for _, l := range res.Legs {
		g := l.Greeks
		fmt.Fprintf(tw, "%.2f\t%d\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.2f\t\n",
			l.Leg.Strike, l.Leg.DTE, l.Leg.Type, l.Leg.Quantity, g.Price, g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho, l.PositionValue)
	}
	tw.Flush()
	fmt.Printf("\nSpot %.2f, vol %.2f%%, rate %.2f%%, multiplier %d\n", c.spot, c.vol*100, rate*100, c.mult)
	fmt.Printf("Total value %.2f | Delta %.2f | Gamma %.4f | Vega %.2f | Theta %.2f | Rho %.2f\n",
		res.TotalValue, res.Delta, res.Gamma, res.Vega, res.Theta, res.Rho)

	if c.save {
		if err := c.saveInputs(cfg.StateDir, rate, legs); err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}

func (c *bscalcCmd) saveInputs(dir string, rate float64, legs []models.ScenarioLeg) error {
	store, err := storage.New(dir)
	if err != nil {
		return err
	}
	st, err := store.LoadUIState()
	if err != nil {
		return err
	}
	st.Calculator = models.CalculatorInputs{
		Ticker:       strings.ToUpper(c.ticker),
		Market:       c.market,
		Spot:         c.spot,
		Volatility:   c.vol,
		RiskFreeRate: rate,
		Legs:         legs,
	}
	return store.SaveUIState(st)
}

// parseScenarioLegs reads "strike:dte:type:qty" arguments.
func parseScenarioLegs(args []string) ([]models.ScenarioLeg, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one leg is required", models.ErrValidation)
	}
	legs := make([]models.ScenarioLeg, 0, len(args))
	for _, a := range args {
		parts := strings.Split(a, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: leg %q, want strike:dte:type:qty", models.ErrValidation, a)
		}
		strike, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: strike %q", models.ErrValidation, parts[0])
		}
		dte, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: days to expiry %q", models.ErrValidation, parts[1])
		}
		typ, err := models.ParseOptionType(parts[2])
		if err != nil {
			return nil, err
		}
		qty, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: quantity %q", models.ErrValidation, parts[3])
		}
		legs = append(legs, models.ScenarioLeg{Strike: strike, DTE: dte, Type: typ, Quantity: qty})
	}
	return legs, nil
}
