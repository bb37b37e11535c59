package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dyike/CapitalGo/config"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	accountPattern = regexp.MustCompile(`^[a-z][a-z0-9.-]{2,15}$`)
	symbolPattern  = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,19}$`)
)

// askConfig fills a config interactively. Tests replace it.
var askConfig = promptForConfig

type configAnswers struct {
	Account        string `survey:"account"`
	Liquidity      string `survey:"liquidity"`
	Fuel           string `survey:"fuel"`
	Tradeables     string `survey:"tradeables"`
	TargetBalance  string `survey:"target_balance"`
	MinFuelPrice   string `survey:"min_fuel_price"`
	SellOnModerate bool   `survey:"sell_on_moderate"`
	Override       bool   `survey:"override"`
}

func promptForConfig(base config.Config) (config.Config, error) {
	questions := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Hive-Engine account:",
				Default: base.Account,
			},
			Validate: validateAccount,
		},
		{
			Name: "liquidity",
			Prompt: &survey.Input{
				Message: "Liquidity token:",
				Help:    "The token operations spend, e.g. SWAP.HIVE",
				Default: base.LiquiditySymbol,
			},
			Validate: validateSymbol,
		},
		{
			Name: "fuel",
			Prompt: &survey.Input{
				Message: "Fuel token:",
				Help:    "The token sold to refill liquidity, e.g. SWAP.BLURT",
				Default: base.FuelSymbol,
			},
			Validate: validateSymbol,
		},
		{
			Name: "tradeables",
			Prompt: &survey.Input{
				Message: "Tradeable tokens (comma separated):",
				Default: strings.Join(base.TradeableSymbols, ","),
			},
		},
		{
			Name: "target_balance",
			Prompt: &survey.Input{
				Message: "Target liquidity balance:",
				Default: base.Policy.TargetBalance.String(),
			},
			Validate: validatePositiveDecimal,
		},
		{
			Name: "min_fuel_price",
			Prompt: &survey.Input{
				Message: "Minimum fuel price:",
				Default: base.Policy.MinFuelPrice.String(),
			},
			Validate: validatePositiveDecimal,
		},
		{
			Name: "sell_on_moderate",
			Prompt: &survey.Confirm{
				Message: "Sell fuel while liquidity is only moderately low?",
				Default: base.Policy.SellOnModerate,
			},
		},
		{
			Name: "override",
			Prompt: &survey.Confirm{
				Message: "Allow critical sales below the minimum fuel price?",
				Default: base.Policy.CriticalOverride,
			},
		},
	}

	var ans configAnswers
	if err := survey.Ask(questions, &ans); err != nil {
		return config.Config{}, err
	}
	return applyAnswers(base, ans)
}

// applyAnswers copies prompt answers onto base and validates the result.
func applyAnswers(base config.Config, ans configAnswers) (config.Config, error) {
	cfg := base
	cfg.Account = strings.TrimSpace(ans.Account)
	cfg.LiquiditySymbol = strings.ToUpper(strings.TrimSpace(ans.Liquidity))
	cfg.FuelSymbol = strings.ToUpper(strings.TrimSpace(ans.Fuel))
	cfg.TradeableSymbols = nil
	for _, s := range strings.Split(ans.Tradeables, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			cfg.TradeableSymbols = append(cfg.TradeableSymbols, s)
		}
	}

	target, err := decimal.NewFromString(strings.TrimSpace(ans.TargetBalance))
	if err != nil {
		return config.Config{}, fmt.Errorf("target balance: %w", err)
	}
	minPrice, err := decimal.NewFromString(strings.TrimSpace(ans.MinFuelPrice))
	if err != nil {
		return config.Config{}, fmt.Errorf("min fuel price: %w", err)
	}
	cfg.Policy.TargetBalance = target
	cfg.Policy.MinFuelPrice = minPrice
	cfg.Policy.SellOnModerate = ans.SellOnModerate
	cfg.Policy.CriticalOverride = ans.Override

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func validateAccount(val interface{}) error {
	str := strings.TrimSpace(fmt.Sprint(val))
	if !accountPattern.MatchString(str) {
		return fmt.Errorf("invalid account name (3-16 lowercase letters, digits, dots, hyphens)")
	}
	return nil
}

func validateSymbol(val interface{}) error {
	str := strings.ToUpper(strings.TrimSpace(fmt.Sprint(val)))
	if !symbolPattern.MatchString(str) {
		return fmt.Errorf("invalid token symbol %q", str)
	}
	return nil
}

func validatePositiveDecimal(val interface{}) error {
	d, err := decimal.NewFromString(strings.TrimSpace(fmt.Sprint(val)))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// newConfigInitCmd writes a config file from interactive answers.
func newConfigInitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or update the config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _, err := o.loadConfig()
			if err != nil {
				base = *config.DefaultConfig()
			}

			filled, err := askConfig(base)
			if err != nil {
				return err
			}

			opts := []config.ManagerOption{config.WithInitialConfig(&filled)}
			if o.configPath != "" {
				opts = append(opts, config.WithConfigPath(o.configPath))
			}
			m, err := config.NewManager(opts...)
			if err != nil {
				return err
			}
			if err := m.Update(filled); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "configuration written to "+m.Path())
			return nil
		},
	}
}
