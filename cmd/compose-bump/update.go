package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nholik/compose-bump/internal/artifact"
	"github.com/nholik/compose-bump/internal/backup"
	"github.com/nholik/compose-bump/internal/config"
	"github.com/nholik/compose-bump/internal/health"
	"github.com/nholik/compose-bump/internal/history"
	"github.com/nholik/compose-bump/internal/lockfile"
	"github.com/nholik/compose-bump/internal/metrics"
	"github.com/nholik/compose-bump/internal/notify"
	"github.com/nholik/compose-bump/internal/orchestrator"
	"github.com/nholik/compose-bump/internal/stack"
	"github.com/nholik/compose-bump/internal/version"
)

var (
	flagDryRun             bool
	flagStrictVolumeBackup bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the service to the latest published version",
	Long: `Fetch the published version, compare it with the version pinned in
the build artifact, and if they differ: back up, pin, rebuild, restart
and health-check the service, rolling back on failure.

Exits 0 when the service is up to date, updated, or safely rolled
back; exits 1 only when manual intervention is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.VersionURL == "" {
			return errors.New("CB_VERSION_URL (or a profile version_url) is required")
		}
		if flagStrictVolumeBackup {
			cfg.StrictVolumeBackup = true
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		release, err := lockfile.Acquire(cfg.LockFile)
		if err != nil {
			return err
		}
		defer release()

		result, err := runUpdate(ctx, logger, cfg)
		if err != nil {
			return err
		}

		report(ctx, logger, cfg, result)

		if result.ExitCode() != 0 {
			return fmt.Errorf("update failed: %v", result.Err)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without touching anything")
	updateCmd.Flags().BoolVar(&flagStrictVolumeBackup, "strict-volume-backup", false, "abort the update when the data volume archive fails")
}

func runUpdate(ctx context.Context, logger zerolog.Logger, cfg config.Config) (orchestrator.Result, error) {
	source, err := version.NewHTTPSource(cfg.VersionURL, cfg.HTTPTimeout)
	if err != nil {
		return orchestrator.Result{}, err
	}
	store, err := artifact.NewFileStore(cfg.ArtifactPath)
	if err != nil {
		return orchestrator.Result{}, err
	}
	runner, err := stack.NewRunner(cfg.ComposeFile, logger)
	if err != nil {
		return orchestrator.Result{}, err
	}
	prober, err := health.NewHTTPProber(cfg.HealthURL, cfg.HTTPTimeout)
	if err != nil {
		return orchestrator.Result{}, err
	}

	snapshotter, err := buildSnapshotter(ctx, logger, cfg)
	if err != nil {
		return orchestrator.Result{}, err
	}

	o, err := orchestrator.New(logger, source, store, runner,
		orchestrator.WithSnapshotter(snapshotter),
		orchestrator.WithHealthCheck(prober, health.Policy{
			MaxAttempts: cfg.HealthAttempts,
			Interval:    cfg.HealthInterval,
		}),
		orchestrator.WithDryRun(flagDryRun),
	)
	if err != nil {
		return orchestrator.Result{}, err
	}

	return o.Run(ctx), nil
}

// buildSnapshotter wires the artifact copy and, when a data volume is
// known, the docker-driven volume archive.
func buildSnapshotter(ctx context.Context, logger zerolog.Logger, cfg config.Config) (*backup.Snapshotter, error) {
	opts := []backup.SnapshotOption{
		backup.WithStrictVolumeArchive(cfg.StrictVolumeBackup),
	}

	dataVolume := cfg.DataVolume
	if dataVolume == "" {
		dataVolume = discoverDataVolume(ctx, logger, cfg)
	}
	if dataVolume != "" {
		archiver, err := backup.NewDockerArchiver(cfg.DockerHost)
		if err != nil {
			return nil, err
		}
		backupVolume := cfg.BackupVolume
		if backupVolume == "" {
			backupVolume = dataVolume + "_backup"
		}
		opts = append(opts, backup.WithVolumeArchive(archiver, dataVolume, backupVolume))
	} else {
		logger.Warn().Msg("no data volume configured or discovered, skipping volume archive")
	}

	return backup.NewSnapshotter(cfg.BackupDir, cfg.ArtifactPath, logger, opts...)
}

// discoverDataVolume reads the compose file and returns the service's
// volume when it mounts exactly one. More than one is ambiguous and the
// operator has to pick via CB_DATA_VOLUME.
func discoverDataVolume(ctx context.Context, logger zerolog.Logger, cfg config.Config) string {
	body, err := os.ReadFile(cfg.ComposeFile)
	if err != nil {
		logger.Warn().Err(err).Str("file", cfg.ComposeFile).Msg("could not read compose file for volume discovery")
		return ""
	}
	service, err := stack.ParseService(ctx, body, cfg.Service)
	if err != nil {
		logger.Warn().Err(err).Str("service", cfg.Service).Msg("could not parse compose service for volume discovery")
		return ""
	}
	if len(service.Volumes) != 1 {
		logger.Debug().
			Strs("volumes", service.Volumes).
			Msg("service does not mount exactly one volume, set CB_DATA_VOLUME to archive one")
		return ""
	}
	return service.Volumes[0]
}

// report persists the run record, updates the metrics textfile and
// fires notifications. All of it is best-effort: a failed report never
// changes the run outcome.
func report(ctx context.Context, logger zerolog.Logger, cfg config.Config, result orchestrator.Result) {
	record := history.Record{
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Profile:    flagProfile,
		From:       result.From,
		To:         result.To,
		Outcome:    string(result.Outcome),
		Attempts:   result.Attempts,
		BackupDir:  result.BackupDir,
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}
	if err := history.NewFileStore(cfg.HistoryFile, logger).Append(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("could not persist run history")
	}

	if cfg.MetricsFile != "" {
		m := metrics.New()
		m.RecordRun(string(result.Outcome), result.Duration(), result.Attempts, result.FinishedAt)
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("could not write metrics textfile")
		}
	}

	webhook, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, "")
	if err != nil {
		logger.Warn().Err(err).Msg("webhook notifier disabled")
	}
	notifier := notify.NewMultiNotifier(
		notify.NewSlackNotifier(logger, cfg.SlackWebhookURL),
		webhook,
	)
	err = notifier.Notify(ctx, notify.Report{
		Profile:   flagProfile,
		Outcome:   string(result.Outcome),
		From:      result.From,
		To:        result.To,
		Attempts:  result.Attempts,
		Duration:  result.Duration(),
		BackupDir: result.BackupDir,
		Err:       result.Err,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("could not deliver notifications")
	}
}
