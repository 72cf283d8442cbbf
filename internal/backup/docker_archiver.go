package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
)

const (
	defaultArchiveTimeout = 2 * time.Minute
	defaultHelperImage    = "alpine:3"
)

// DockerArchiver archives a volume through a throwaway helper container
// that tars the source volume into the backup volume.
type DockerArchiver struct {
	api         *client.Client
	timeout     time.Duration
	helperImage string
}

// ArchiverOption customizes DockerArchiver behavior.
type ArchiverOption func(*DockerArchiver)

// WithHelperImage overrides the tar helper image.
func WithHelperImage(ref string) ArchiverOption {
	return func(a *DockerArchiver) {
		a.helperImage = ref
	}
}

// WithArchiveTimeout bounds a single archive run.
func WithArchiveTimeout(timeout time.Duration) ArchiverOption {
	return func(a *DockerArchiver) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// NewDockerArchiver initializes an archiver for the given Docker API host.
// An empty host uses the SDK defaults (DOCKER_HOST or the local socket).
func NewDockerArchiver(host string, opts ...ArchiverOption) (*DockerArchiver, error) {
	clientOpts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}
	if host != "" {
		clientOpts = append(clientOpts, client.WithHost(host))
	}

	api, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, err
	}

	archiver := &DockerArchiver{
		api:         api,
		timeout:     defaultArchiveTimeout,
		helperImage: defaultHelperImage,
	}
	for _, opt := range opts {
		opt(archiver)
	}
	return archiver, nil
}

// Archive implements VolumeArchiver.
func (a *DockerArchiver) Archive(ctx context.Context, sourceVolume, backupVolume, archiveName string) error {
	if a == nil || a.api == nil {
		return errors.New("docker archiver is not initialized")
	}
	if sourceVolume == "" || backupVolume == "" || archiveName == "" {
		return errors.New("source volume, backup volume and archive name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// VolumeCreate is idempotent for an existing name.
	if _, err := a.api.VolumeCreate(ctx, volume.CreateOptions{Name: backupVolume}); err != nil {
		return fmt.Errorf("create backup volume: %w", err)
	}

	// Pull failures are tolerated: the helper image may already be local.
	if reader, err := a.api.ImagePull(ctx, a.helperImage, image.PullOptions{}); err == nil {
		_, _ = io.Copy(io.Discard, reader)
		_ = reader.Close()
	}

	created, err := a.api.ContainerCreate(ctx,
		&container.Config{
			Image: a.helperImage,
			Cmd:   []string{"tar", "czf", "/backup/" + archiveName, "-C", "/source", "."},
		},
		&container.HostConfig{
			Binds: []string{
				sourceVolume + ":/source:ro",
				backupVolume + ":/backup",
			},
		},
		nil, nil, "")
	if err != nil {
		return fmt.Errorf("create helper container: %w", err)
	}
	defer func() {
		removeCtx, removeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer removeCancel()
		_ = a.api.ContainerRemove(removeCtx, created.ID, container.RemoveOptions{Force: true})
	}()

	if err := a.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start helper container: %w", err)
	}

	statusCh, errCh := a.api.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return fmt.Errorf("wait for helper container: %w", err)
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("helper container exited with status %d", status.StatusCode)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
