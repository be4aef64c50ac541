package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 1 {
		return errors.New("limit must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("WALLHUB_TEST_TOKEN", "s3cret")
	p := writeFile(t, "name: demo\ntoken: ${WALLHUB_TEST_TOKEN}\nlimit: 3\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Token != "s3cret" || s.Name != "demo" || s.Limit != 3 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_UnsetEnvBecomesEmpty(t *testing.T) {
	p := writeFile(t, "token: ${WALLHUB_TEST_UNSET_VAR}\nlimit: 1\n")
	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Token != "" {
		t.Errorf("token = %q, want empty", s.Token)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "limit: 0\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Limit: 5}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if s.Name != "default" || s.Limit != 5 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadOptional_OverlaysDefaults(t *testing.T) {
	s := sample{Name: "default", Limit: 5}
	p := writeFile(t, "name: file\n")
	found, err := LoadOptional(p, &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if !found || s.Name != "file" || s.Limit != 5 {
		t.Errorf("found = %v, loaded = %+v", found, s)
	}
}
