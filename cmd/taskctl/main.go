// Command taskctl manages a TaskPulse installation from the shell: schema
// migration, connectivity checks and user administration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/database"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/internal/service"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
)

var Version = "dev"

// opener connects to the database the commands operate on. Callers close
// the returned handle.
type opener func(ctx context.Context) (*sqlx.DB, *config.Config, error)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := newRootCmd(openFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "TaskPulse management tool",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd(open))
	rootCmd.AddCommand(checkDBCmd(open))
	rootCmd.AddCommand(createAdminCmd(open))
	rootCmd.AddCommand(createUserCmd(open))
	rootCmd.AddCommand(promoteUserCmd(open))
	rootCmd.AddCommand(listUsersCmd(open))
	rootCmd.AddCommand(deactivateUserCmd(open))
	rootCmd.AddCommand(resetPasswordCmd(open))

	return rootCmd
}

func openFromConfig(_ context.Context) (*sqlx.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.ConnectionString(),
	})
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

// userService builds the same UserService the server uses. The admin policy
// is irrelevant here since CLI operations carry no actor.
func userService(db *sqlx.DB, cfg *config.Config) *service.UserService {
	clock := service.SystemClock{}
	store := repository.NewStore(db)
	securityLogger := service.NewSecurityLogger(service.NewSecurityService(store, clock))
	passwords := auth.NewPasswordManagerWithCost(cfg.Security.BcryptCost, cfg.Security.PasswordMinLength)
	return service.NewUserService(store, passwords, securityLogger, clock, service.AnyAdmin, cfg.Validation)
}

// withUsers opens the database, runs fn against a UserService and closes
// the connection afterwards.
func withUsers(cmd *cobra.Command, open opener, fn func(ctx context.Context, users *service.UserService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, cfg, err := open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, userService(db, cfg))
}
