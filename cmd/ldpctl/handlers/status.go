package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/ui/tui"
)

// watchInterval is the repaint cadence for status --watch.
const watchInterval = 5 * time.Second

// Factory function variables for status - can be replaced in tests.
var (
	// inspectPlan derives live per-phase health from the cluster.
	inspectPlan = orchestrate.InspectPlan
)

// Status derives and renders live per-phase platform health. Nothing is
// mutated; every phase reports which of its resources exist and whether its
// readiness checks pass right now.
func Status(ctx context.Context, configPath string, jsonOutput, watch bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	client, err := newKubeClient(cfg)
	if err != nil {
		return configErr(fmt.Errorf("failed to create kubernetes client: %w", err))
	}

	plan, err := buildPlan(ctx, cfg, loadTimeouts(), readOnlyDeps(client))
	if err != nil {
		return configErr(fmt.Errorf("failed to assemble plan: %w", err))
	}

	show := func(ctx context.Context) error {
		health, err := inspectPlan(ctx, client, plan)
		if err != nil {
			return fmt.Errorf("failed to inspect platform: %w", err)
		}
		if jsonOutput {
			return printHealthJSON(health)
		}
		fmt.Println(tui.RenderHealth(cfg.Platform.Name, cfg.Environment().String(), health))
		return nil
	}

	if watch {
		return watchStatus(ctx, show, jsonOutput)
	}
	return show(ctx)
}

// readOnlyDeps assembles plan dependencies for non-mutating commands. No
// vault client is dialed: hooks never run during inspection or teardown.
// Warehouse credentials are still read because they shape chart values
// inside the plan's descriptors.
func readOnlyDeps(client kube.Client) catalog.Deps {
	return catalog.Deps{
		Kube:               client,
		WarehouseAccessKey: os.Getenv("WAREHOUSE_ACCESS_KEY"),
		WarehouseSecretKey: os.Getenv("WAREHOUSE_SECRET_KEY"),
	}
}

// watchStatus repaints the status on a fixed cadence until interrupted.
// A failed inspection is printed and retried on the next tick.
func watchStatus(ctx context.Context, show func(context.Context) error, jsonOutput bool) error {
	if err := show(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !jsonOutput {
				fmt.Print("\033[H\033[2J")
			}
			if err := show(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	}
}

func printHealthJSON(health []orchestrate.PhaseHealth) error {
	data, err := json.MarshalIndent(health, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
