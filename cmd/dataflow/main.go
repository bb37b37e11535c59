package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dyike/CapitalGo/config"
	"github.com/dyike/CapitalGo/pkg/dataflows"
)

// Dumps one live snapshot for the configured account as JSON.
func main() {
	account := flag.String("account", "", "Hive-Engine account (default from config)")
	timeout := flag.Duration("timeout", time.Minute, "Overall timeout")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *account != "" {
		cfg.Account = *account
	}
	if cfg.Account == "" {
		fmt.Fprintln(os.Stderr, "account is required (-account or CAPITALGO_ACCOUNT)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := dataflows.NewHiveEngineClient(cfg)
	collector := dataflows.NewCollector(client, dataflows.WithDepth(cfg.BookDepth))
	assets := collector.ResolvePrecision(ctx, cfg.Assets())

	snap, err := collector.Collect(ctx, cfg.Account, assets)
	if err != nil {
		panic(err)
	}

	payload, _ := json.MarshalIndent(struct {
		Assets   interface{} `json:"assets"`
		Snapshot interface{} `json:"snapshot"`
	}{assets, snap}, "", "  ")
	fmt.Println(string(payload))
}
