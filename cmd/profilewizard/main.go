// cmd/profilewizard/main.go
//
// This is the entry point for the profile wizard CLI.
// Running `profilewizard` with no arguments opens the terminal wizard in the
// current directory; the subcommands inspect, submit or reset the saved draft
// without the UI.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/bootstrap"
	"github.com/kingrea/profile-wizard/internal/tui"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

var (
	workspace string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "profilewizard",
	Short: "Build and submit a professional profile step by step",
	Long: `profilewizard walks through seven steps: basic information, education,
experience, projects, skills, certifications and a final review.

Every change is saved as a draft under .profilewizard/ so an interrupted
session resumes where it stopped. Run without arguments to open the wizard.`,
	SilenceUsage: true,
	RunE:         runWizard,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Working directory holding .profilewizard/ (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Submission timeout")

	statusCmd.Flags().Bool("json", false, "Print the summary as JSON")
	resetCmd.Flags().Bool("yes", false, "Confirm clearing the saved draft")

	configCmd.AddCommand(configSetAPIURLCmd)
	configCmd.AddCommand(configSetBackendCmd)

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// openSession is swapped in tests to inject a gateway.
var openSession = func(dir string, opts ...bootstrap.Option) (*bootstrap.Session, error) {
	return bootstrap.Open(dir, opts...)
}

func runWizard(cmd *cobra.Command, args []string) error {
	dir, err := resolveWorkspace()
	if err != nil {
		return err
	}
	var session *bootstrap.Session
	session, err = openSession(dir, bootstrap.WithEngineOptions(
		wizard.WithCompletionHandler(func(c wizard.Completion) {
			if session != nil {
				session.Logger.Info("profile completed",
					zap.String("profile_id", c.Profile.ID),
					zap.Bool("draft_cleared", c.DraftCleared))
			}
		}),
	))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := tui.NewApp(session.Engine,
		tui.WithContext(ctx),
		tui.WithLogger(session.Logger.Named("tui")),
	)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}
	if ref := session.Engine.State().Profile; ref != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Profile created: %s\n", ref.ID)
	}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
