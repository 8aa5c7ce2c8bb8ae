package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/you/gymdesk/internal/app"
	"github.com/you/gymdesk/internal/config"
	"github.com/you/gymdesk/internal/infrastructure/database"
	"github.com/you/gymdesk/internal/infrastructure/repositories"
	"github.com/you/gymdesk/internal/logger"
)

var (
	configPath string
	name       string
)

var rootCmd = &cobra.Command{
	Use:   "seed-admin <email-or-mobile>",
	Short: "Create or promote an administrator",
	Long: `Promotes the account behind an email address or 10-digit mobile number
to admin, creating it when it does not exist. The administrator then logs in
with the usual one-time passcode.

Examples:
  seed-admin owner@gym.in
  seed-admin 9876543210 --name "Front Desk"`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config/config.yml", "path to the YAML config file")
	rootCmd.Flags().StringVar(&name, "name", "", "display name for the administrator")
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if file.Database.DSN == "" {
		return errors.New("database dsn is required (DATABASE_URL)")
	}
	log, err := logger.New(file.App.Environment, file.Log.Level, file.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(file.Database.DSN, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	user, created, err := app.SeedAdmin(cmd.Context(), repositories.NewUserRepository(db), args[0], name)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin account created", zap.Uint("user_id", user.ID))
	} else {
		log.Info("admin account ready", zap.Uint("user_id", user.ID))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
