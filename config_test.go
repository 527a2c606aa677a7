package sharedoc

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	p := writeFile(t, "sharedoc.yaml", `
address: ws://relay.example:1234
room: design
name: ann
color: "#102030"
maxElapsed: 2m
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Address = "ws://relay.example:1234"
	want.Room = "design"
	want.Name = "ann"
	want.Color = "#102030"
	want.MaxElapsed = 2 * time.Minute
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, tc := range []struct {
		name, yaml string
	}{
		{"color", "color: red\n"},
		{"room", "room: \"\"\n"},
		{"scheme", "address: http://x\n"},
		{"syntax", "room: [\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "c.yaml", tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	f := writeFile(t, "test.env", `SHAREDOC_ROOM=from-file
SHAREDOC_NAME=file-name
SHAREDOC_MAX_ELAPSED=30s
`)
	t.Setenv(EnvName, "env-name")
	t.Setenv(EnvAddress, "ws://localhost:9999")
	cfg := DefaultConfig()
	if err := LoadEnv(cfg, f); err != nil {
		t.Fatal(err)
	}
	got := []any{cfg.Room, cfg.Name, cfg.Address, cfg.MaxElapsed}
	want := []any{"from-file", "env-name", "ws://localhost:9999", 30 * time.Second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}

	t.Setenv(EnvMaxElapsed, "soon")
	if err := LoadEnv(cfg, f); err == nil {
		t.Error("expected duration error")
	}
}
