package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultMatchesTemplate(t *testing.T) {
	cfg := Default("demo")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Project.ID != "demo" || cfg.Project.Kind != ProjectKind {
		t.Fatalf("project = %+v", cfg.Project)
	}
	if cfg.Editor.HistoryLimit != 50 || cfg.Editor.DefaultZoomScale != 2 || cfg.Editor.MinEffectDuration != 0.5 {
		t.Fatalf("editor = %+v", cfg.Editor)
	}
	if got := cfg.Editor.SkipInterval().Milliseconds(); got != 100 {
		t.Fatalf("skip interval = %dms", got)
	}
}

func TestFromYAMLFillsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("project:\n  id: p1\n  kind: screen-recording\neditor:\n  history_limit: 10\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Editor.HistoryLimit != 10 {
		t.Fatalf("history_limit = %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Editor.DefaultSpeed != 2 || cfg.Autosave.IntervalSeconds != 30 {
		t.Fatalf("defaults not kept: %+v %+v", cfg.Editor, cfg.Autosave)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"missing id":   "project:\n  kind: screen-recording\n",
		"wrong kind":   "project:\n  id: p1\n  kind: tasks\n",
		"zero history": "project:\n  id: p1\n  kind: screen-recording\neditor:\n  history_limit: 0\n",
		"slow max":     "project:\n  id: p1\n  kind: screen-recording\neditor:\n  max_playback_rate: 0.5\n",
		"hook url":     "project:\n  id: p1\n  kind: screen-recording\nwebhooks:\n  - events: ['*']\n",
		"bad yaml":     "project: [",
	}
	for name, raw := range cases {
		if _, err := FromYAML([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file: cfg=%v err=%v", cfg, err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("load missing: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cutline.yml"), []byte(GenerateDefault("p9")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil || cfg == nil || cfg.Project.ID != "p9" {
		t.Fatalf("load: cfg=%+v err=%v", cfg, err)
	}
}
