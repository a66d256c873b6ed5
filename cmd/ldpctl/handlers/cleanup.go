package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/platform/objectstore"
)

// planTeardown sweeps a plan's resources off the cluster. Matches
// orchestrate.Teardown.
type planTeardown interface {
	Run(ctx context.Context) error
}

// bucketPurger empties and removes warehouse buckets. Matches
// objectstore.Client.
type bucketPurger interface {
	EmptyBucket(ctx context.Context, bucketName string) error
	DeleteBucket(ctx context.Context, bucketName string) error
}

// bucketPurgeTimeout bounds the whole bucket sweep so an unreachable
// object store cannot stall the teardown behind it.
const bucketPurgeTimeout = 2 * time.Minute

// Factory function variables for cleanup - can be replaced in tests.
var (
	// newTeardown builds the reverse-order teardown.
	newTeardown = func(client kube.Client, plan orchestrate.Plan, opts ...orchestrate.TeardownOption) (planTeardown, error) {
		return orchestrate.NewTeardown(client, plan, opts...)
	}

	// newBucketPurger builds the object store client for bucket cleanup.
	newBucketPurger = func(ctx context.Context, endpoint, region, accessKey, secretKey string) (bucketPurger, error) {
		return objectstore.NewClient(ctx, endpoint, region, accessKey, secretKey)
	}

	// stdin is the confirmation prompt's input.
	stdin io.Reader = os.Stdin
)

// Cleanup deletes every resource the plan declares, in reverse dependency
// order. Warehouse buckets are emptied and removed first, while the object
// store still serves; failures there are warnings, never teardown stoppers.
// Already-absent resources are tolerated so a partial cleanup can be re-run.
// Unless yes is set, a confirmation prompt is read from stdin and anything
// but y/yes aborts.
func Cleanup(ctx context.Context, configPath string, yes bool) error {
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

	if !yes {
		ok, err := confirmCleanup(cfg.Platform.Name)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cleanup aborted.")
			return nil
		}
	}

	if err := purgeWarehouseBuckets(ctx, cfg); err != nil {
		log.Printf("Warning: warehouse bucket cleanup failed: %v", err)
	}

	log.Printf("Tearing down platform %q: %d phases", cfg.Platform.Name, len(plan))

	teardown, err := newTeardown(client, plan, orchestrate.WithTeardownNotify(orchestrate.ConsoleObserver()))
	if err != nil {
		return configErr(fmt.Errorf("invalid phase plan: %w", err))
	}
	if err := teardown.Run(ctx); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Println("Cleanup complete.")
	fmt.Println("Note: volumes provisioned for the object store and databases may retain data until their PersistentVolumeClaims are deleted.")
	return nil
}

// purgeWarehouseBuckets empties and deletes the configured warehouse
// buckets ahead of the manifest sweep, while the object store still
// answers. Missing credentials skip the purge and per-bucket failures only
// warn, so stuck external state never blocks cluster cleanup.
func purgeWarehouseBuckets(ctx context.Context, cfg *config.Config) error {
	accessKey := os.Getenv("WAREHOUSE_ACCESS_KEY")
	secretKey := os.Getenv("WAREHOUSE_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		log.Println("Warehouse credentials not set, skipping bucket cleanup")
		return nil
	}
	if len(cfg.Warehouse.Buckets) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, bucketPurgeTimeout)
	defer cancel()

	log.Printf("Cleaning up warehouse buckets: %s", strings.Join(cfg.Warehouse.Buckets, ", "))
	purger, err := newBucketPurger(ctx,
		cfg.Warehouse.ClientEndpoint(),
		cfg.Warehouse.Region,
		accessKey,
		secretKey,
	)
	if err != nil {
		return err
	}

	for _, bucket := range cfg.Warehouse.Buckets {
		if err := purger.EmptyBucket(ctx, bucket); err != nil {
			log.Printf("Warning: failed to empty bucket %s: %v", bucket, err)
			continue
		}
		if err := purger.DeleteBucket(ctx, bucket); err != nil {
			log.Printf("Warning: failed to delete bucket %s: %v", bucket, err)
		}
	}
	return nil
}

// confirmCleanup prompts for confirmation on stdin. EOF counts as a decline
// so piped runs without --yes do not hang or proceed.
func confirmCleanup(platform string) (bool, error) {
	fmt.Printf("This deletes every resource of platform %q, including secret material and bucket declarations.\n", platform)
	fmt.Print("Proceed? [y/N]: ")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
