package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named deployment overlay, so one binary can manage
// several compose-managed services from a single profiles file.
type Profile struct {
	Name         string `yaml:"name"`
	VersionURL   string `yaml:"version_url,omitempty"`
	ArtifactPath string `yaml:"artifact_path,omitempty"`
	ComposeFile  string `yaml:"compose_file,omitempty"`
	Service      string `yaml:"service,omitempty"`
	HealthURL    string `yaml:"health_url,omitempty"`
	MetadataURL  string `yaml:"metadata_url,omitempty"`
	DataVolume   string `yaml:"data_volume,omitempty"`
}

// ProfileFile is the parsed YAML structure:
// profiles: [{name, version_url, artifact_path, ...}]
type ProfileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfileFile parses a YAML profile file from the given path.
// Returns nil if path is empty (no profile file).
func LoadProfileFile(path string) ([]Profile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profile file: %w", err)
	}

	if err := validateProfiles(pf.Profiles); err != nil {
		return nil, err
	}

	return pf.Profiles, nil
}

// FindProfile returns the named profile from the list.
func FindProfile(profiles []Profile, name string) (Profile, error) {
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q not found", name)
}

// Apply overlays the profile's non-empty fields onto the configuration.
func (c *Config) Apply(p Profile) {
	if p.VersionURL != "" {
		c.VersionURL = p.VersionURL
	}
	if p.ArtifactPath != "" {
		c.ArtifactPath = p.ArtifactPath
	}
	if p.ComposeFile != "" {
		c.ComposeFile = p.ComposeFile
	}
	if p.Service != "" {
		c.Service = p.Service
	}
	if p.HealthURL != "" {
		c.HealthURL = p.HealthURL
	}
	if p.MetadataURL != "" {
		c.MetadataURL = p.MetadataURL
	}
	if p.DataVolume != "" {
		c.DataVolume = p.DataVolume
	}
}

func validateProfiles(profiles []Profile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("profile file contains no profiles")
	}

	seen := make(map[string]bool)

	for i, p := range profiles {
		if p.Name == "" {
			return fmt.Errorf("profile %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("profile %q: duplicate name", p.Name)
		}
		seen[p.Name] = true

		if p.VersionURL != "" {
			if err := validateURL(p.VersionURL, "version_url"); err != nil {
				return fmt.Errorf("profile %q: %w", p.Name, err)
			}
		}
		if p.HealthURL != "" {
			if err := validateURL(p.HealthURL, "health_url"); err != nil {
				return fmt.Errorf("profile %q: %w", p.Name, err)
			}
		}
	}

	return nil
}
