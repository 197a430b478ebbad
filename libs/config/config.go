package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var ErrConfigConflict = errors.New("more than one pinion config file detected, please keep either 'pinion.yml' or 'pinion.yaml'")

const (
	ResolverGit = "git"
	ResolverAPI = "api"
)

// Config is the optional repo-level pinion.yml. Pointer fields distinguish
// values the file actually set from missing ones, so flags and defaults can
// fill the gaps.
type Config struct {
	WorkflowsDir    string   `yaml:"workflows_dir"`
	DryRun          *bool    `yaml:"dry_run"`
	Backup          *bool    `yaml:"backup"`
	Concurrency     *int     `yaml:"concurrency"`
	Resolver        string   `yaml:"resolver"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// Load reads pinion.yml or pinion.yaml from workingDir. A missing file is
// not an error; it returns an empty config.
func Load(workingDir string) (*Config, error) {
	fileName, err := retrieveConfigFile(workingDir)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", fileName, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", fileName, err)
	}
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", fileName, err)
	}
	return config, nil
}

func validate(config *Config) error {
	if config.Resolver != "" && config.Resolver != ResolverGit && config.Resolver != ResolverAPI {
		return fmt.Errorf("unknown resolver %q, expected %q or %q", config.Resolver, ResolverGit, ResolverAPI)
	}
	if config.Concurrency != nil && *config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", *config.Concurrency)
	}
	return nil
}

func retrieveConfigFile(workingDir string) (string, error) {
	fileName := "pinion"
	if workingDir != "" {
		fileName = path.Join(workingDir, fileName)
	}

	// Make sure we don't have more than one pinion config file
	ymlCfg := fileName + ".yml"
	yamlCfg := fileName + ".yaml"
	ymlCfgExists := isFileExists(ymlCfg)
	yamlCfgExists := isFileExists(yamlCfg)

	if ymlCfgExists && yamlCfgExists {
		return "", ErrConfigConflict
	} else if ymlCfgExists {
		return ymlCfg, nil
	} else if yamlCfgExists {
		return yamlCfg, nil
	}

	return "", nil
}

func isFileExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}

// EnvConfig is the ambient environment a GitHub Actions runner provides.
// All of it is optional when running locally.
type EnvConfig struct {
	ServerURL string `env:"GITHUB_SERVER_URL" envDefault:"https://github.com"`
	Token     string `env:"GITHUB_TOKEN"`
	Debug     bool   `env:"PINION_DEBUG"`
}

func ParseEnv() (*EnvConfig, error) {
	var parsedEnvConfig EnvConfig
	if err := env.Parse(&parsedEnvConfig); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if parsedEnvConfig.ServerURL == "" {
		parsedEnvConfig.ServerURL = "https://github.com"
	}
	return &parsedEnvConfig, nil
}
