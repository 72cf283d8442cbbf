package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/compose-bump/internal/backup"
	"github.com/nholik/compose-bump/internal/health"
	"github.com/nholik/compose-bump/internal/version"
)

// ArtifactStore is the orchestrator's view of the configuration artifact.
type ArtifactStore interface {
	Current() (string, error)
	Pin(version string) error
	RestorePrevious() error
	DiscardPrevious() error
	Path() string
}

// StackRunner drives the container orchestration CLI.
type StackRunner interface {
	Build(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Snapshotter backs up mutable state before the destructive steps.
type Snapshotter interface {
	Snapshot(ctx context.Context) (backup.Handle, error)
}

// Orchestrator performs a safe, observable version bump with automatic
// rollback on failed health verification. All collaborators are
// injected; the orchestrator itself never touches files or processes.
type Orchestrator struct {
	logger      zerolog.Logger
	source      version.Source
	store       ArtifactStore
	stack       StackRunner
	snapshotter Snapshotter
	prober      health.Prober
	policy      health.Policy
	dryRun      bool
	waitHealthy func(ctx context.Context) (int, error)
	now         func() time.Time
}

// Option customizes orchestrator behavior.
type Option func(*Orchestrator)

// WithSnapshotter enables the backup stage.
func WithSnapshotter(snapshotter Snapshotter) Option {
	return func(o *Orchestrator) {
		o.snapshotter = snapshotter
	}
}

// WithHealthCheck sets the liveness probe and its retry policy.
func WithHealthCheck(prober health.Prober, policy health.Policy) Option {
	return func(o *Orchestrator) {
		o.prober = prober
		o.policy = policy
	}
}

// WithDryRun stops the run after the comparison stage.
func WithDryRun(dryRun bool) Option {
	return func(o *Orchestrator) {
		o.dryRun = dryRun
	}
}

// WithWaitFunc overrides the health wait loop, for tests.
func WithWaitFunc(fn func(ctx context.Context) (int, error)) Option {
	return func(o *Orchestrator) {
		o.waitHealthy = fn
	}
}

// WithClock overrides timestamping, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New constructs an Orchestrator. A health check is mandatory: an update
// is never left applied but unverified.
func New(logger zerolog.Logger, source version.Source, store ArtifactStore, stack StackRunner, opts ...Option) (*Orchestrator, error) {
	if source == nil {
		return nil, errors.New("version source is required")
	}
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if stack == nil {
		return nil, errors.New("stack runner is required")
	}

	o := &Orchestrator{
		logger: logger,
		source: source,
		store:  store,
		stack:  stack,
		policy: health.DefaultPolicy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.waitHealthy == nil {
		if o.prober == nil {
			return nil, errors.New("health check is required")
		}
		o.waitHealthy = func(ctx context.Context) (int, error) {
			return health.Wait(ctx, o.logger, o.prober, o.policy)
		}
	}

	return o, nil
}

// Run executes the update state machine:
//
//	fetch → compare → (same: done)
//	                → (different: backup → apply → restart → health check)
//	health check    → (pass: cleanup → done)
//	                → (fail: rollback → restart → done with error)
func (o *Orchestrator) Run(ctx context.Context) Result {
	result := Result{StartedAt: o.now().UTC()}

	fail := func(err error) Result {
		o.logger.Error().Err(err).Msg("update run failed")
		result.Outcome = OutcomeFailed
		result.Err = err
		result.FinishedAt = o.now().UTC()
		return result
	}
	finish := func(outcome Outcome) Result {
		result.Outcome = outcome
		result.FinishedAt = o.now().UTC()
		return result
	}

	o.logger.Info().Msg("fetching target version")
	target, err := o.source.Fetch(ctx)
	if err != nil {
		return fail(err)
	}
	result.To = target

	current, err := o.store.Current()
	if err != nil {
		return fail(err)
	}
	current = version.Normalize(current)
	result.From = current

	o.logger.Info().
		Str("current", current).
		Str("target", target).
		Msg("comparing versions")

	if version.Equal(current, target) {
		o.logger.Info().Str("version", current).Msg("already up to date")
		return finish(OutcomeUpToDate)
	}
	if !version.IsConcrete(current) {
		o.logger.Info().
			Str("alias", current).
			Str("target", target).
			Msg("current version is an alias, pinning concrete version")
	}

	if o.dryRun {
		o.logger.Info().
			Str("current", current).
			Str("target", target).
			Msg("dry run: update available, nothing changed")
		return finish(OutcomeDryRun)
	}

	if o.snapshotter != nil {
		o.logger.Info().Msg("backing up current state")
		handle, err := o.snapshotter.Snapshot(ctx)
		if err != nil {
			return fail(fmt.Errorf("backup: %w", err))
		}
		result.BackupDir = handle.Dir
	}

	o.logger.Info().Str("target", target).Msg("pinning target version")
	if err := o.store.Pin(target); err != nil {
		// Pin is atomic: a failure here leaves the artifact untouched,
		// so there is nothing to roll back yet.
		return fail(fmt.Errorf("pin version: %w", err))
	}

	o.logger.Info().Msg("rebuilding service image")
	if err := o.stack.Build(ctx); err != nil {
		o.logger.Error().Err(err).Msg("image rebuild failed, health check will decide rollback")
	}

	o.logger.Info().Msg("restarting service")
	if err := o.stack.Restart(ctx); err != nil {
		o.logger.Error().Err(err).Msg("service restart failed, health check will decide rollback")
	}

	o.logger.Info().
		Int("max_attempts", o.policy.MaxAttempts).
		Dur("interval", o.policy.Interval).
		Msg("waiting for service to become healthy")
	attempts, healthErr := o.waitHealthy(ctx)
	result.Attempts = attempts

	if healthErr == nil {
		o.logger.Info().
			Str("version", target).
			Int("attempts", attempts).
			Msg("update verified")
		if err := o.store.DiscardPrevious(); err != nil {
			o.logger.Warn().Err(err).Msg("could not remove rollback artifact")
		}
		return finish(OutcomeUpdated)
	}

	o.logger.Error().
		Err(healthErr).
		Str("target", target).
		Msg("service failed health verification, rolling back")

	if err := o.rollback(ctx); err != nil {
		o.printRemediation(result.BackupDir)
		return fail(fmt.Errorf("rollback: %w (after %v)", err, healthErr))
	}

	o.logger.Warn().
		Str("restored", current).
		Msg("rolled back to previous version; the restored service was not re-verified")
	result.Err = healthErr
	return finish(OutcomeRolledBack)
}

// rollback restores the sibling artifact, rebuilds and restarts. It is
// attempted exactly once; its own failure is terminal.
func (o *Orchestrator) rollback(ctx context.Context) error {
	o.logger.Info().Msg("restoring previous configuration artifact")
	if err := o.store.RestorePrevious(); err != nil {
		return fmt.Errorf("restore artifact: %w", err)
	}
	o.logger.Info().Msg("rebuilding previous service image")
	if err := o.stack.Build(ctx); err != nil {
		return fmt.Errorf("rebuild previous image: %w", err)
	}
	o.logger.Info().Msg("restarting service on previous version")
	if err := o.stack.Restart(ctx); err != nil {
		return fmt.Errorf("restart previous version: %w", err)
	}
	return nil
}

// printRemediation tells the operator exactly how to recover by hand.
func (o *Orchestrator) printRemediation(backupDir string) {
	event := o.logger.Error().Str("artifact", o.store.Path())
	if backupDir != "" {
		event = event.Str("backup_dir", backupDir)
	}
	event.Msg("manual recovery required: copy the artifact out of the backup directory over " +
		o.store.Path() + ", then run `docker compose build` and `docker compose up -d`; " +
		"data can be restored from the backup volume archive if one was created")
}
