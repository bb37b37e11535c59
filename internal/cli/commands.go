package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dyike/CapitalGo/config"
	"github.com/dyike/CapitalGo/internal/display"
	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/dyike/CapitalGo/internal/logging"
	"github.com/dyike/CapitalGo/internal/storage"
	"github.com/dyike/CapitalGo/pkg/dataflows"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// newSource builds the market data source. Tests replace it.
var newSource = func(cfg config.Config) dataflows.MarketSource {
	return dataflows.NewHiveEngineClient(&cfg)
}

type rootOptions struct {
	configPath string
	account    string
	logLevel   string
	logFile    string
	jsonOut    bool
	debug      bool
}

// env is the loaded state shared by a command run.
type env struct {
	cfg     config.Config
	manager *config.Manager
	logger  *logging.Logger
}

func (e *env) Close() {
	if e.logger != nil {
		_ = e.logger.Close()
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "capitalgo",
		Short: "CapitalGo - liquidity-aware capital allocation",
		Long: `CapitalGo watches a Hive-Engine account and decides when fuel should be
sold for liquidity, when surplus liquidity should be powered up, and which
tradeable holdings the market can absorb. It recommends; it never trades.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newLadderCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Configuration file path (config.json)")
	pf.StringVar(&opts.account, "account", "", "Hive-Engine account to evaluate")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	pf.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug mode")

	return rootCmd
}

// loadConfig reads the config file when --config is set, the environment
// otherwise, then applies flag overrides.
func (o *rootOptions) loadConfig() (config.Config, *config.Manager, error) {
	if o.configPath != "" {
		m, err := config.NewManager(config.WithConfigPath(o.configPath))
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("load config: %w", err)
		}
		cfg := m.Get()
		o.applyOverrides(&cfg)
		return cfg, m, cfg.Validate()
	}

	cfg := *config.DefaultConfig()
	o.applyOverrides(&cfg)
	return cfg, nil, cfg.Validate()
}

func (o *rootOptions) applyOverrides(cfg *config.Config) {
	if o.account != "" {
		cfg.Account = o.account
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	if o.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}

func (o *rootOptions) setup(cmd *cobra.Command) (*env, error) {
	cfg, m, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.Logger)
	return &env{cfg: cfg, manager: m, logger: logger}, nil
}

func requireAccount(cfg config.Config) error {
	if strings.TrimSpace(cfg.Account) == "" {
		return fmt.Errorf("account is required (--account or CAPITALGO_ACCOUNT)")
	}
	return nil
}

func (o *rootOptions) newApp(e *env) (*app, error) {
	return newApp(e.cfg, e.logger, newSource(e.cfg))
}

// cycleOutput is the --json form of one cycle.
type cycleOutput struct {
	CycleID         string        `json:"cycle_id"`
	Report          engine.Report `json:"report"`
	CooldownSeconds int64         `json:"cooldown_remaining_seconds,omitempty"`
	CooldownError   string        `json:"cooldown_error,omitempty"`
}

func (o *rootOptions) printCycle(cmd *cobra.Command, res *cycleResult) error {
	out := cmd.OutOrStdout()
	if o.jsonOut {
		co := cycleOutput{
			CycleID:         res.ID,
			Report:          res.Report,
			CooldownSeconds: int64(res.Deferred / time.Second),
		}
		if res.CooldownErr != nil {
			co.CooldownError = res.CooldownErr.Error()
		}
		return writeJSON(out, co)
	}
	d := display.NewReportDisplay(out)
	d.Show(res.Report)
	switch {
	case res.CooldownErr != nil:
		d.ShowCooldownUnknown(res.CooldownErr)
	case res.Deferred > 0:
		d.ShowDeferred(res.Deferred)
	}
	return nil
}

// newCheckCmd runs a single decision cycle.
func newCheckCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one decision cycle and print the report",
		Long: `Collect a snapshot of the account and evaluate it once. A fuel sale
inside the cooldown is reported as deferred; check never starts a cooldown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := requireAccount(e.cfg); err != nil {
				return err
			}

			a, err := o.newApp(e)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.runCycle(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("cycle failed: %w", err)
			}
			return o.printCycle(cmd, res)
		},
	}
}

// newScanCmd runs only the tradeable scan.
func newScanCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Check which tradeable holdings the market can absorb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := requireAccount(e.cfg); err != nil {
				return err
			}

			collector := dataflows.NewCollector(newSource(e.cfg),
				dataflows.WithDepth(e.cfg.BookDepth),
				dataflows.WithCollectorLogger(e.logger.Logger))
			ctx := cmd.Context()
			assets := collector.ResolvePrecision(ctx, e.cfg.Assets())
			snap, err := collector.Collect(ctx, e.cfg.Account, assets)
			if err != nil {
				return err
			}
			report := engine.Evaluate(snap, assets, e.cfg.Policy)

			out := cmd.OutOrStdout()
			if o.jsonOut {
				return writeJSON(out, report.Tradeables)
			}
			if len(report.Tradeables.Results) == 0 {
				printWarning(out, "no tradeable symbols configured")
				return nil
			}
			for _, r := range report.Tradeables.Results {
				if r.Sellable {
					printField(out, r.Symbol, display.FormatRecommendation(engine.TradeableSellable{
						Symbol: r.Symbol, Amount: r.SellAmount, ExpectedProceeds: r.Walk.TotalRevenue,
					}))
					continue
				}
				printField(out, r.Symbol, "hold: "+r.HoldReason)
			}
			return nil
		},
	}
}

// newLadderCmd evaluates the reserve ladder for a given or live balance.
func newLadderCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ladder [BALANCE]",
		Short: "Show the power-up decision for a liquidity balance",
		Long: `Evaluate the reserve ladder. With BALANCE the decision is computed offline;
without it the account's live liquidity balance is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var balance decimal.Decimal
			if len(args) == 1 {
				balance, err = decimal.NewFromString(args[0])
				if err != nil {
					return fmt.Errorf("invalid balance %q: %w", args[0], err)
				}
			} else {
				if err := requireAccount(e.cfg); err != nil {
					return err
				}
				balance, err = liveLiquidity(cmd.Context(), e.cfg)
				if err != nil {
					return err
				}
			}

			rec := engine.Ladder(balance, e.cfg.Policy)
			out := cmd.OutOrStdout()
			if o.jsonOut {
				return writeJSON(out, engine.Wrap(rec))
			}
			printField(out, "Liquidity balance", balance)
			printField(out, "Decision", display.FormatRecommendation(rec))
			if pu, ok := rec.(engine.PowerUp); ok {
				printField(out, "Stance", pu.Stance())
			}
			return nil
		},
	}
}

func liveLiquidity(ctx context.Context, cfg config.Config) (decimal.Decimal, error) {
	src := newSource(cfg)
	if bs, ok := src.(dataflows.BalanceSource); ok {
		return bs.GetBalance(ctx, cfg.Account, cfg.LiquiditySymbol)
	}
	balances, err := src.GetBalances(ctx, cfg.Account)
	if err != nil {
		return decimal.Zero, err
	}
	return balances.Get(cfg.LiquiditySymbol), nil
}

// newHistoryCmd lists journaled cycles.
func newHistoryCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent decision cycles from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := storage.Open(e.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			cycles, err := store.ListCycles(cmd.Context(), 0, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.jsonOut {
				return writeJSON(out, cycles)
			}
			fmt.Fprintln(out, display.RenderCycles(cycles))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of cycles to show")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CapitalGo %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Show, validate and create CapitalGo configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, m, err := o.loadConfig()
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			path := ""
			if m != nil {
				path = m.Path()
			}
			showConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, _, err := o.loadConfig()
			if err != nil {
				printError(out, err.Error())
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				printError(out, err.Error())
				return err
			}
			if cfg.Account == "" {
				printWarning(out, "no account configured; check and watch need --account")
			}
			printSuccess(out, "configuration is valid")
			return nil
		},
	})

	configCmd.AddCommand(newConfigInitCmd(o))
	return configCmd
}
