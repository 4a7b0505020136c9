package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"logoserver/internal/account"
	"logoserver/internal/domain"
	"logoserver/internal/infra"
)

// userplan is an operator tool: it moves an account to a different plan
// without going through the PayPal flow.
func main() {
	var (
		emailFlag string
		planFlag  string
		subFlag   string
	)

	flag.StringVar(&emailFlag, "email", "", "account email to update")
	flag.StringVar(&planFlag, "plan", "pro", "plan to assign (free, basic, pro, influencer)")
	flag.StringVar(&subFlag, "subscription", "", "subscription id to record (optional)")
	flag.Parse()

	email := strings.ToLower(strings.TrimSpace(emailFlag))
	plan := domain.UserPlan(strings.ToLower(strings.TrimSpace(planFlag)))

	if email == "" {
		exitWithError(errors.New("-email is required"))
	}
	if !plan.Valid() {
		exitWithError(fmt.Errorf("unsupported plan %q", planFlag))
	}

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, cleanup, err := openStore(ctx)
	if err != nil {
		exitWithError(err)
	}
	defer cleanup()

	if err := store.UpdatePlan(ctx, email, plan, strings.TrimSpace(subFlag)); err != nil {
		exitWithError(fmt.Errorf("failed to update plan: %w", err))
	}

	user, err := store.Get(ctx, email)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}

	fmt.Printf("User %s updated to plan %s (daily limit %d)\n", user.Email, user.Plan, user.DailyLimit)
}

func openStore(ctx context.Context) (account.Store, func(), error) {
	if dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL")); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect database: %w", err)
		}
		logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
		runner := infra.NewSQLRunner(pool, logger)
		return account.NewPostgresStore(runner), pool.Close, nil
	}

	path := strings.TrimSpace(os.Getenv("ACCOUNT_DB_PATH"))
	if path == "" {
		path = "users.db"
	}
	store, err := account.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open account store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
