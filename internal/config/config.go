package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const ProjectKind = "screen-recording"

// Config models cutline.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id" json:"id"`
		Kind string `yaml:"kind" json:"kind"`
	} `yaml:"project" json:"project"`
	Editor   EditorConfig    `yaml:"editor" json:"editor"`
	Autosave AutosaveConfig  `yaml:"autosave" json:"autosave"`
	Webhooks []WebhookConfig `yaml:"webhooks" json:"webhooks,omitempty"`
}

type EditorConfig struct {
	HistoryLimit        int     `yaml:"history_limit" json:"history_limit"`
	MinEffectDuration   float64 `yaml:"min_effect_duration" json:"min_effect_duration"`
	DuplicateOffset     float64 `yaml:"duplicate_offset" json:"duplicate_offset"`
	MaxPlaybackRate     float64 `yaml:"max_playback_rate" json:"max_playback_rate"`
	SkipCheckIntervalMS int     `yaml:"skip_check_interval_ms" json:"skip_check_interval_ms"`
	ReverseSkipSeconds  float64 `yaml:"reverse_skip_seconds" json:"reverse_skip_seconds"`
	DefaultZoomScale    float64 `yaml:"default_zoom_scale" json:"default_zoom_scale"`
	DefaultSpeed        float64 `yaml:"default_speed" json:"default_speed"`
}

type AutosaveConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Events         []string `yaml:"events" json:"events,omitempty"`
	Secret         string   `yaml:"secret" json:"secret,omitempty"`
	Enabled        *bool    `yaml:"enabled" json:"enabled,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds,omitempty"`
}

// SkipInterval returns the skip check cadence as a duration.
func (e EditorConfig) SkipInterval() time.Duration {
	return time.Duration(e.SkipCheckIntervalMS) * time.Millisecond
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with cutline project config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != ProjectKind {
		return fmt.Errorf("config.project.kind must be '%s'", ProjectKind)
	}
	e := c.Editor
	if e.HistoryLimit <= 0 {
		return fmt.Errorf("config.editor.history_limit must be positive")
	}
	if e.MinEffectDuration <= 0 {
		return fmt.Errorf("config.editor.min_effect_duration must be positive")
	}
	if e.DuplicateOffset < 0 {
		return fmt.Errorf("config.editor.duplicate_offset must not be negative")
	}
	if e.MaxPlaybackRate < 1 {
		return fmt.Errorf("config.editor.max_playback_rate must be at least 1")
	}
	if e.SkipCheckIntervalMS <= 0 {
		return fmt.Errorf("config.editor.skip_check_interval_ms must be positive")
	}
	if e.DefaultZoomScale < 1 {
		return fmt.Errorf("config.editor.default_zoom_scale must be at least 1")
	}
	if e.DefaultSpeed <= 0 {
		return fmt.Errorf("config.editor.default_speed must be positive")
	}
	if c.Autosave.IntervalSeconds < 0 {
		return fmt.Errorf("config.autosave.interval_seconds must not be negative")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "cutline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID, ProjectKind)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	cfg.Project.Kind = ProjectKind
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Missing editor
// settings take their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default("")
	cfg.Project.ID = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s
  kind: %s

editor:
  history_limit: 50
  min_effect_duration: 0.5
  duplicate_offset: 1.0
  max_playback_rate: 8
  skip_check_interval_ms: 100
  reverse_skip_seconds: 5
  default_zoom_scale: 2
  default_speed: 2

autosave:
  interval_seconds: 30

# webhooks:
#   - url: http://localhost:9000/cutline
#     events: [edl.zoom.added, history.undo]
#     secret: change-me
`
