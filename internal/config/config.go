package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wtforge/internal/allocate"
	"wtforge/internal/classify"
)

// Dir is the per-project directory holding wtforge state: the config
// file, the advisory lock, and (inside each worktree) the metadata record.
const Dir = ".wtforge"

// FileName is the project config file inside Dir.
const FileName = "config.yaml"

// Config is the per-project configuration. Everything here is data the
// core consumes as-is: pattern lists, port ranges, substitution
// variables. A missing file means defaults.
type Config struct {
	Rules          classify.Rules        `yaml:"rules"`
	Merge          classify.MergeRules   `yaml:"merge"`
	Ranges         []allocate.NamedRange `yaml:"ranges"`
	Variables      map[string]string     `yaml:"variables"`
	TextExtensions []string              `yaml:"textExtensions"`
	NameBudget     int                   `yaml:"nameBudget"`
	LogLevel       string                `yaml:"logLevel"`
}

func DefaultConfig() Config {
	return Config{
		Rules: classify.Rules{
			AlwaysUpdate: []string{"scripts/", "docs/worktrees.md", ".github/workflows/"},
			Protected:    []string{"deploy/", "test/"},
			// Files the project owns outright once installed. The list must
			// be exhaustive: a miscategorized path here silently discards
			// incoming changes to it.
			PreserveTarget: []string{"test/package.json"},
		},
		Merge: classify.MergeRules{
			Skip:     []string{Dir + "/", ".worktrees/", "node_modules/"},
			Preserve: []string{"test/package.json", "deploy/db.yml"},
		},
		Ranges: []allocate.NamedRange{
			{Name: "app", Base: 3100, Width: 30},
			{Name: "api", Base: 8100, Width: 30},
			{Name: "db", Base: 5500, Width: 30},
		},
		TextExtensions: []string{
			".md", ".mjs", ".js", ".ts", ".json", ".yml", ".yaml",
			".sh", ".env", ".txt", ".toml", ".sql",
		},
		NameBudget: allocate.DefaultNameBudget,
		LogLevel:   "info",
	}
}

// Load reads the project config from <targetRoot>/.wtforge/config.yaml.
// A missing file yields defaults, not an error.
func Load(targetRoot string) (Config, error) {
	return LoadFrom(filepath.Join(targetRoot, Dir, FileName))
}

// LoadFrom loads configuration from an explicit path.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	if cfg.NameBudget <= 0 {
		cfg.NameBudget = allocate.DefaultNameBudget
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// IsText reports whether a path is eligible for variable substitution,
// by extension only. Anything not listed is copied as opaque bytes.
func (c *Config) IsText(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.TextExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
