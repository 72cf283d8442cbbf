package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// Service describes the compose service under orchestration: the image it
// runs and the named volumes holding its persistent data.
type Service struct {
	Name    string
	Image   string
	Volumes []string
}

// ParseService loads compose content and extracts the named service.
func ParseService(ctx context.Context, body []byte, name string) (Service, error) {
	if len(body) == 0 {
		return Service{}, errors.New("compose body is empty")
	}
	if name == "" {
		return Service{}, errors.New("service name must not be empty")
	}

	details := types.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []types.ConfigFile{
			{
				Filename: "compose.yml",
				Content:  body,
			},
		},
		Environment: types.Mapping{},
	}

	project, err := loader.LoadWithContext(ctx, details, func(opts *loader.Options) {
		opts.SetProjectName("compose-bump", false)
	})
	if err != nil {
		return Service{}, fmt.Errorf("load compose: %w", err)
	}

	service, ok := project.Services[name]
	if !ok {
		return Service{}, fmt.Errorf("service %q not found in compose file", name)
	}

	volumes, err := resolveVolumeNames(service.Volumes, project.Volumes)
	if err != nil {
		return Service{}, fmt.Errorf("service %q volumes: %w", name, err)
	}

	return Service{
		Name:    name,
		Image:   service.Image,
		Volumes: volumes,
	}, nil
}

// resolveVolumeNames maps named volume mounts to their runtime volume
// names. Bind mounts and anonymous volumes are skipped; only named
// volumes carry data the backup step can archive.
func resolveVolumeNames(mounts []types.ServiceVolumeConfig, volumes types.Volumes) ([]string, error) {
	if len(mounts) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(mounts))
	for _, mount := range mounts {
		if mount.Type != types.VolumeTypeVolume || mount.Source == "" {
			continue
		}
		cfg, ok := volumes[mount.Source]
		if !ok {
			return nil, fmt.Errorf("undefined volume %q", mount.Source)
		}
		name := cfg.Name
		if name == "" {
			name = mount.Source
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return dedupe(names), nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	var last string
	for _, value := range values {
		if value == last && len(result) > 0 {
			continue
		}
		result = append(result, value)
		last = value
	}
	return result
}
