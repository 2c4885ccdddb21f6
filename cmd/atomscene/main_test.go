package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/atomscene/internal/command"
)

func TestRunBatchStopsAtExit(t *testing.T) {
	e := command.NewEngine(nil)
	var out bytes.Buffer
	if err := runBatch(e, []string{"legend on", "exit", "xyzzy"}, &out); err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}
	if !e.Settings().Legend {
		t.Error("legend not switched on")
	}
	if !e.Exited() {
		t.Error("engine did not exit")
	}
}

func TestRunBatchFails(t *testing.T) {
	e := command.NewEngine(nil)
	var out bytes.Buffer
	err := runBatch(e, []string{"help step", "go 3"}, &out)
	if err == nil {
		t.Fatal("go on an empty trajectory succeeded")
	}
	if !strings.Contains(out.String(), "step") {
		t.Errorf("help output missing: %q", out.String())
	}
}

func TestLoadConfigLayers(t *testing.T) {
	preset = "compact"
	t.Cleanup(func() { preset, geometry = "", "" })
	t.Setenv("ATOMSCENE_THEME", "ocean")

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&geometry, "geometry", "", "")
	if err := cmd.Flags().Set("geometry", "300x200"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("geometry = %dx%d, want 300x200", cfg.Width, cfg.Height)
	}
	if cfg.Preview.Cols != 40 || cfg.Preview.Rows != 12 {
		t.Errorf("preview = %dx%d, want the compact preset", cfg.Preview.Cols, cfg.Preview.Rows)
	}
	if cfg.Theme != "ocean" {
		t.Errorf("theme = %q, want the environment value", cfg.Theme)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Cleanup(func() { preset, geometry = "", "" })

	preset = "nope"
	if _, err := loadConfig(&cobra.Command{}); err == nil {
		t.Error("unknown preset accepted")
	}

	preset = ""
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&geometry, "geometry", "", "")
	cmd.Flags().Set("geometry", "wide")
	if _, err := loadConfig(cmd); err == nil {
		t.Error("bad geometry accepted")
	}
}
