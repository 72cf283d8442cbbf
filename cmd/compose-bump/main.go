package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nholik/compose-bump/internal/config"
	"github.com/nholik/compose-bump/internal/logging"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagProfile      string
	flagProfilesFile string
	flagLogLevel     string
	flagJSONLogs     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "compose-bump",
	Short: "Idempotent version bumps for compose-managed services",
	Long: `compose-bump pins a service's published version into its build
artifact, rebuilds and restarts the compose stack, verifies the service
comes back healthy, and rolls back to the previous version when it does
not. Safe to run repeatedly: when the deployed version already matches
the published one, nothing is touched.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"compose-bump version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "named profile from the profiles file")
	rootCmd.PersistentFlags().StringVar(&flagProfilesFile, "profiles-file", "", "YAML file with per-service profiles")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json", false, "emit logs as JSON instead of console output")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

func newLogger() zerolog.Logger {
	return logging.New(flagLogLevel, flagJSONLogs)
}

// loadConfig reads the environment configuration and overlays the
// selected profile, if any.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if flagProfile == "" {
		return cfg, nil
	}
	if flagProfilesFile == "" {
		return config.Config{}, fmt.Errorf("--profile %q requires --profiles-file", flagProfile)
	}
	profiles, err := config.LoadProfileFile(flagProfilesFile)
	if err != nil {
		return config.Config{}, err
	}
	profile, err := config.FindProfile(profiles, flagProfile)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Apply(profile)
	return cfg, nil
}
