package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/dyike/CapitalGo/models"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const DefaultRPCURL = "https://api.hive-engine.com/rpc/contracts"

type Config struct {
	ProjectDir   string `json:"project_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	DBPath       string `json:"db_path"`

	// Hive-Engine access
	RPCURL            string `json:"rpc_url"`
	Account           string `json:"account"`
	BookDepth         int    `json:"book_depth"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	MaxRetries        int    `json:"max_retries"`

	// Asset classes
	LiquiditySymbol  string   `json:"liquidity_symbol"`
	FuelSymbol       string   `json:"fuel_symbol"`
	PremiumSymbols   []string `json:"premium_symbols"`
	TradeableSymbols []string `json:"tradeable_symbols"`

	Policy engine.PolicyConfig `json:"policy"`

	// Caller-side scheduling
	CooldownMinutes  int    `json:"cooldown_minutes"`
	WatchIntervalSec int    `json:"watch_interval_sec"`
	MetricsAddr      string `json:"metrics_addr"`

	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file"`
	CacheEnabled bool   `json:"cache_enabled"`
	Debug        bool   `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns defaults with every path under root.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),
		DBPath:       filepath.Join(root, "data", "capitalgo.db"),

		RPCURL:            DefaultRPCURL,
		Account:           "",
		BookDepth:         100,
		RequestTimeoutSec: 30,
		MaxRetries:        3,

		LiquiditySymbol:  "SWAP.HIVE",
		FuelSymbol:       "SWAP.BLURT",
		PremiumSymbols:   []string{"VKBT", "CURE"},
		TradeableSymbols: []string{"BBH", "POB"},

		Policy: engine.DefaultPolicy(),

		CooldownMinutes:  60,
		WatchIntervalSec: 300,
		MetricsAddr:      "",

		LogLevel:     "info",
		CacheEnabled: true,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("CAPITALGO_DB_PATH"); val != "" {
		c.DBPath = val
	}

	if val := os.Getenv("HIVE_ENGINE_RPC"); val != "" {
		c.RPCURL = val
	}
	if val := os.Getenv("CAPITALGO_ACCOUNT"); val != "" {
		c.Account = val
	}
	envInt("CAPITALGO_BOOK_DEPTH", &c.BookDepth)
	envInt("CAPITALGO_REQUEST_TIMEOUT_SEC", &c.RequestTimeoutSec)
	envInt("CAPITALGO_MAX_RETRIES", &c.MaxRetries)

	if val := os.Getenv("CAPITALGO_LIQUIDITY_SYMBOL"); val != "" {
		c.LiquiditySymbol = val
	}
	if val := os.Getenv("CAPITALGO_FUEL_SYMBOL"); val != "" {
		c.FuelSymbol = val
	}
	if val := os.Getenv("CAPITALGO_PREMIUM_SYMBOLS"); val != "" {
		c.PremiumSymbols = splitSymbols(val)
	}
	if val := os.Getenv("CAPITALGO_TRADEABLE_SYMBOLS"); val != "" {
		c.TradeableSymbols = splitSymbols(val)
	}

	p := &c.Policy
	envDecimal("CAPITALGO_CRITICAL_BALANCE", &p.CriticalBalance)
	envDecimal("CAPITALGO_MIN_BALANCE", &p.MinBalance)
	envDecimal("CAPITALGO_TARGET_BALANCE", &p.TargetBalance)
	envDecimal("CAPITALGO_TIER1", &p.Tier1)
	envDecimal("CAPITALGO_TIER2", &p.Tier2)
	envDecimal("CAPITALGO_TIER3", &p.Tier3)
	envDecimal("CAPITALGO_POWER_UP_FRACTION", &p.PowerUpFraction)
	envDecimal("CAPITALGO_FUEL_RESERVE", &p.FuelReserveFloor)
	envDecimal("CAPITALGO_MIN_FUEL_PRICE", &p.MinFuelPrice)
	envDecimal("CAPITALGO_SLIPPAGE_BUFFER", &p.SlippageBuffer)
	envBool("CAPITALGO_SELL_ON_MODERATE", &p.SellOnModerate)
	envBool("CAPITALGO_CRITICAL_OVERRIDE", &p.CriticalOverride)
	envDecimal("CAPITALGO_CRITICAL_HARD_FLOOR", &p.CriticalHardFloor)
	envDecimal("CAPITALGO_DUST_THRESHOLD", &p.DustThreshold)
	envDecimal("CAPITALGO_TRADEABLE_SELL_FRACTION", &p.TradeableSellFraction)
	envDecimal("CAPITALGO_TRADEABLE_MIN_FILL_PCT", &p.TradeableMinFillPct)
	envDecimal("CAPITALGO_TRADEABLE_MIN_PROCEEDS", &p.TradeableMinProceeds)

	envInt("CAPITALGO_COOLDOWN_MINUTES", &c.CooldownMinutes)
	envInt("CAPITALGO_WATCH_INTERVAL_SEC", &c.WatchIntervalSec)
	if val := os.Getenv("CAPITALGO_METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}

	if val := os.Getenv("CAPITALGO_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("CAPITALGO_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	envBool("CACHE_ENABLED", &c.CacheEnabled)
	envBool("CAPITALGO_DEBUG", &c.Debug)
}

// Validate rejects a config the engine could not run with. Policy ordering
// errors wrap engine.ErrMisconfiguredPolicy.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("rpc url is required")
	}
	if strings.TrimSpace(c.LiquiditySymbol) == "" {
		return fmt.Errorf("liquidity symbol is required")
	}
	if strings.TrimSpace(c.FuelSymbol) == "" {
		return fmt.Errorf("fuel symbol is required")
	}
	if models.NormalizeSymbol(c.FuelSymbol) == models.NormalizeSymbol(c.LiquiditySymbol) {
		return fmt.Errorf("fuel symbol %s cannot be the liquidity symbol", c.FuelSymbol)
	}
	assets := c.Assets()
	for _, s := range c.TradeableSymbols {
		if assets.Class(s) != models.AssetTradeable {
			return fmt.Errorf("symbol %s is tradeable and %s at once", s, assets.Class(s))
		}
		if models.NormalizeSymbol(s) == models.NormalizeSymbol(c.LiquiditySymbol) {
			return fmt.Errorf("liquidity symbol %s cannot be tradeable", s)
		}
	}
	if c.BookDepth <= 0 || c.BookDepth > 1000 {
		return fmt.Errorf("book depth %d out of range (1-1000)", c.BookDepth)
	}
	if c.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown minutes %d is negative", c.CooldownMinutes)
	}
	if c.WatchIntervalSec <= 0 {
		return fmt.Errorf("watch interval %d must be positive", c.WatchIntervalSec)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}

// Assets builds the asset classification from the symbol lists.
func (c Config) Assets() models.AssetBook {
	return models.AssetBook{
		Liquidity: models.NormalizeSymbol(c.LiquiditySymbol),
		Fuel:      models.NormalizeSymbol(c.FuelSymbol),
		Premium:   normalizeAll(c.PremiumSymbols),
		Tradeable: normalizeAll(c.TradeableSymbols),
	}
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalSec) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.DataCacheDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func splitSymbols(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = models.NormalizeSymbol(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = models.NormalizeSymbol(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			*dst = v
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			*dst = v
		}
	}
}

func envDecimal(key string, dst *decimal.Decimal) {
	if val := os.Getenv(key); val != "" {
		if v, err := decimal.NewFromString(strings.TrimSpace(val)); err == nil {
			*dst = v
		}
	}
}
