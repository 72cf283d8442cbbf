package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholik/compose-bump/internal/artifact"
	"github.com/nholik/compose-bump/internal/health"
	"github.com/nholik/compose-bump/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pinned version and whether an update is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := artifact.NewFileStore(cfg.ArtifactPath)
		if err != nil {
			return err
		}
		current, err := store.Current()
		if err != nil {
			return err
		}
		current = version.Normalize(current)

		fmt.Printf("Artifact:        %s\n", cfg.ArtifactPath)
		fmt.Printf("Pinned version:  %s\n", current)
		if !version.IsConcrete(current) {
			fmt.Println("                 (alias tag, next update will pin a concrete version)")
		}
		if exists, _ := store.PreviousExists(); exists {
			fmt.Println("Rollback copy:   present (previous update was not cleaned up)")
		}

		if cfg.VersionURL != "" {
			source, err := version.NewHTTPSource(cfg.VersionURL, cfg.HTTPTimeout)
			if err != nil {
				return err
			}
			target, err := source.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Published:       %s\n", target)
			if version.Equal(current, target) {
				fmt.Println("Status:          up to date")
			} else {
				fmt.Println("Status:          update available")
			}
		}

		if cfg.MetadataURL != "" {
			info, err := health.FetchInfo(cmd.Context(), cfg.MetadataURL, cfg.HTTPTimeout)
			if err != nil {
				logger.Warn().Err(err).Msg("could not fetch running service metadata")
			} else if info.Version != "" {
				fmt.Printf("Running:         %s\n", info.Version)
			}
		}

		return nil
	},
}
