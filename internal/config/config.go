package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources Sources `yaml:"sources"`
	HTTP    HTTP    `yaml:"http"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Sources struct {
	Temperature Source `yaml:"temperature"`
	CO2         Source `yaml:"co2"`
	SeaLevel    Source `yaml:"sea_level"`
}

// Source is one remote dataset and the file name it is saved under.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	File string `yaml:"file"`
}

type HTTP struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Output struct {
	DownloadDir string `yaml:"download_dir"`
	ChartsDir   string `yaml:"charts_dir"`
	DataDir     string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for climatetrends.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "climatetrends")
}

// DataDir returns the XDG data directory for climatetrends.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "climatetrends")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/climatetrends/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the built-in
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Sources: Sources{
			Temperature: Source{
				Name: "temperature",
				URL:  "https://data.giss.nasa.gov/gistemp/tabledata_v4/GLB.Ts+dSST.txt",
				File: "temperature_data.csv",
			},
			CO2: Source{
				Name: "co2",
				URL:  "https://raw.githubusercontent.com/owid/co2-data/master/owid-co2-data.csv",
				File: "co2_data.csv",
			},
			SeaLevel: Source{
				Name: "sea level",
				URL:  "https://raw.githubusercontent.com/datasets/sea-level-rise/master/data/epa-sea-level.csv",
				File: "sea_level_data.csv",
			},
		},
		HTTP: HTTP{
			Timeout:   60 * time.Second,
			UserAgent: "climatetrends/1.0",
		},
		Output: Output{
			DownloadDir: "data",
			ChartsDir:   ".",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for _, s := range []Source{c.Sources.Temperature, c.Sources.CO2, c.Sources.SeaLevel} {
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		if s.File == "" {
			return fmt.Errorf("source %q: file is required", s.Name)
		}
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// SourcePath returns where a source's raw download is stored.
func (c *Config) SourcePath(s Source) string {
	return filepath.Join(c.Output.DownloadDir, s.File)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
