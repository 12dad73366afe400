package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/profile-wizard/internal/config"
)

// configCmd edits .profilewizard/config.yaml
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Change project settings",
}

var configSetAPIURLCmd = &cobra.Command{
	Use:   "set-api-url [url]",
	Short: "Set the profile service base URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetAPIBaseURL(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API URL set to %s\n", cfg.Project.Gateway.BaseURL)
		return nil
	},
}

var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend [file|sqlite|redis|memory]",
	Short: "Choose where the draft is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetDraftBackend(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Draft backend set to %s\n", cfg.Project.Draft.Backend)
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	dir, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	if err := config.InitProjectDir(dir); err != nil {
		return nil, err
	}
	return config.NewConfig(dir)
}
