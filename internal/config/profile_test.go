package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadProfileFile(t *testing.T) {
	path := writeProfileFile(t, `
profiles:
  - name: jenkins-prod
    version_url: https://updates.jenkins.io/stable/latestCore.txt
    service: jenkins
    data_volume: jenkins_home
  - name: jenkins-staging
    compose_file: staging/docker-compose.yml
    health_url: http://localhost:8081/login
`)

	profiles, err := LoadProfileFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "jenkins-prod" || profiles[0].DataVolume != "jenkins_home" {
		t.Fatalf("unexpected first profile: %+v", profiles[0])
	}

	found, err := FindProfile(profiles, "jenkins-staging")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ComposeFile != "staging/docker-compose.yml" {
		t.Fatalf("unexpected compose file: %q", found.ComposeFile)
	}
}

func TestLoadProfileFile_EmptyPath(t *testing.T) {
	profiles, err := LoadProfileFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles != nil {
		t.Fatalf("expected nil profiles, got %v", profiles)
	}
}

func TestLoadProfileFile_MissingName(t *testing.T) {
	path := writeProfileFile(t, `
profiles:
  - service: jenkins
`)
	if _, err := LoadProfileFile(path); err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestLoadProfileFile_DuplicateName(t *testing.T) {
	path := writeProfileFile(t, `
profiles:
  - name: jenkins
  - name: jenkins
`)
	if _, err := LoadProfileFile(path); err == nil || !strings.Contains(err.Error(), "duplicate name") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadProfileFile_InvalidURL(t *testing.T) {
	path := writeProfileFile(t, `
profiles:
  - name: jenkins
    version_url: "::not a url::"
`)
	if _, err := LoadProfileFile(path); err == nil {
		t.Fatal("expected url validation error")
	}
}

func TestFindProfile_NotFound(t *testing.T) {
	_, err := FindProfile([]Profile{{Name: "jenkins"}}, "gitea")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
