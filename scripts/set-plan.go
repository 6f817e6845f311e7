// Command set-plan flips an account's plan. It stands in for the
// billing integration: plans are never changed through the HTTP API.
//
// Usage:
//
//	go run ./scripts/set-plan.go -email alice@example.com -plan pro
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/store"
)

type output struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Plan      string `json:"plan"`
}

func main() {
	var (
		email       = flag.String("email", "", "Registration email of the account")
		plan        = flag.String("plan", "", "Target plan: free or pro")
		driver      = flag.String("store-driver", envOrDefault("STORE_DRIVER", "file"), "Store driver: file, redis, or postgres")
		dataDir     = flag.String("data-dir", envOrDefault("DATA_DIR", "./data"), "Data directory for the file driver")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection URL")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *email == "" || *plan == "" {
		fmt.Fprintln(os.Stderr, "-email and -plan are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStore(ctx, *driver, *dataDir, *redisURL, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	registry, err := identity.New(ctx, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load registry: %v\n", err)
		os.Exit(1)
	}

	account, err := registry.SetPlan(ctx, *email, model.Plan(*plan))
	if err != nil {
		fmt.Fprintf(os.Stderr, "set plan: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(output{
			AccountID: account.ID,
			Email:     account.Email,
			Plan:      string(account.Plan),
		})
		return
	}

	fmt.Printf("account %s (%s) is now on the %s plan\n", account.ID, account.Email, account.Plan)
}

func openStore(ctx context.Context, driver, dataDir, redisURL, databaseURL string) (store.Store, error) {
	switch driver {
	case "redis":
		return store.NewRedisStore(ctx, redisURL)
	case "postgres":
		return store.NewPostgresStore(ctx, databaseURL)
	default:
		return store.NewFileStore(dataDir)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
