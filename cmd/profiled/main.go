// cmd/profiled/main.go
//
// This is the entry point for the profile service the wizard submits to.
// Settings come from PROFILED_* environment variables, optionally loaded
// from a .env file. Without a MySQL DSN profiles are kept in memory; without
// an AMQP URL no events are published.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profileapi"
)

var (
	envFile  string
	tokenTTL time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "profiled",
	Short:        "Serve the profile API",
	SilenceUsage: true,
	RunE:         runServe,
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Print a signed access token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with PROFILED_* settings")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSettings() (profileapi.Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return profileapi.Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	settings := profileapi.SettingsFromEnv()
	if settings.JWTSecret == "" {
		return settings, fmt.Errorf("%s must be set", profileapi.EnvJWTSecret)
	}
	return settings, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	gin.SetMode(gin.ReleaseMode)

	var repo profileapi.Repository = profileapi.NewMemoryRepository()
	if settings.MySQLDSN != "" {
		gormRepo, err := profileapi.OpenMySQL(settings.MySQLDSN)
		if err != nil {
			return err
		}
		defer gormRepo.Close()
		repo = gormRepo
	} else {
		logger.Warn("no MySQL DSN configured; profiles are kept in memory")
	}

	opts := []profileapi.Option{profileapi.WithLogger(logger)}
	if settings.AMQPURL != "" {
		pub, err := profileapi.DialAMQP(settings.AMQPURL, settings.Queue)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, profileapi.WithPublisher(pub))
	}

	srv, err := profileapi.NewServer(settings, repo, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runToken(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	tok, err := profileapi.IssueToken([]byte(settings.JWTSecret), args[0], tokenTTL, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
