package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cryptellation/freshness/pkg/exemption"
	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/cryptellation/freshness/pkg/gate"
	"github.com/cryptellation/freshness/pkg/inventory"
	"github.com/cryptellation/freshness/pkg/version"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FRESHNESS_FAIL_ON_UPDATE=false.
const EnvPrefix = "FRESHNESS"

// ConfigurationError reports an invalid configuration value. It is fatal at startup.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type PreRelease struct {
	Qualifiers     []string `mapstructure:"qualifiers"`
	VendorPatterns []string `mapstructure:"vendor_patterns"`
	Semver         bool     `mapstructure:"semver"`
}

type Build struct {
	VersionLabel        string   `mapstructure:"version_label"`
	DevelopmentSuffixes []string `mapstructure:"development_suffixes"`
}

type Tool struct {
	Coordinate string `mapstructure:"coordinate"`
}

type Inventory struct {
	Path    string        `mapstructure:"path"`
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	FailOnUpdate bool       `mapstructure:"fail_on_update"`
	Exemptions   []string   `mapstructure:"exemptions"`
	PreRelease   PreRelease `mapstructure:"prerelease"`
	Build        Build      `mapstructure:"build"`
	Tool         Tool       `mapstructure:"tool"`
	Inventory    Inventory  `mapstructure:"inventory"`
	Logging      Logging    `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fail_on_update", true)
	v.SetDefault("exemptions", []string{})
	v.SetDefault("prerelease.qualifiers", version.DefaultQualifiers)
	v.SetDefault("prerelease.vendor_patterns", version.DefaultVendorPatterns)
	v.SetDefault("prerelease.semver", false)
	v.SetDefault("build.version_label", "")
	v.SetDefault("build.development_suffixes", gate.DefaultDevelopmentSuffixes)
	v.SetDefault("tool.coordinate", "")
	v.SetDefault("inventory.path", "")
	v.SetDefault("inventory.workers", inventory.DefaultWorkers)
	v.SetDefault("inventory.timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
}

// Load reads the YAML file at configPath, if any, on top of the defaults.
// Environment variables prefixed with EnvPrefix take precedence over both.
// A relative inventory.path is resolved against the directory of configPath.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigurationError{Field: configPath, Err: err}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if configPath != "" && config.Inventory.Path != "" && !filepath.IsAbs(config.Inventory.Path) {
		config.Inventory.Path = filepath.Join(filepath.Dir(configPath), config.Inventory.Path)
	}

	return &config, nil
}

// Compiled holds the ready-to-use components derived from a Config.
type Compiled struct {
	Classifier *version.Classifier
	Policy     freshness.Policy
	Build      gate.BuildContext
	Tool       freshness.Coordinate
	Builder    inventory.BuilderOptions
}

// Compile validates the configuration and builds its components.
// Every failure is a *ConfigurationError.
func (c *Config) Compile() (*Compiled, error) {
	classifier, err := version.NewClassifier(version.Options{
		Qualifiers:     c.PreRelease.Qualifiers,
		VendorPatterns: c.PreRelease.VendorPatterns,
		StrictSemver:   c.PreRelease.Semver,
	})
	if err != nil {
		field := "prerelease.qualifiers"
		if errors.Is(err, version.ErrInvalidVendorPattern) {
			field = "prerelease.vendor_patterns"
		}
		return nil, &ConfigurationError{Field: field, Err: err}
	}

	matcher, err := exemption.Compile(c.Exemptions)
	if err != nil {
		return nil, &ConfigurationError{Field: "exemptions", Err: err}
	}

	var tool freshness.Coordinate
	if c.Tool.Coordinate != "" {
		tool, err = freshness.ParseCoordinate(c.Tool.Coordinate)
		if err != nil {
			return nil, &ConfigurationError{Field: "tool.coordinate", Err: err}
		}
	}

	if c.Inventory.Workers < 0 {
		return nil, &ConfigurationError{Field: "inventory.workers", Err: fmt.Errorf("must not be negative, got %d", c.Inventory.Workers)}
	}
	if c.Inventory.Timeout < 0 {
		return nil, &ConfigurationError{Field: "inventory.timeout", Err: fmt.Errorf("must not be negative, got %s", c.Inventory.Timeout)}
	}

	return &Compiled{
		Classifier: classifier,
		Policy:     freshness.Policy{FailOnUpdate: c.FailOnUpdate, Exemptions: matcher},
		Build:      gate.NewBuildContext(c.Build.VersionLabel, c.Build.DevelopmentSuffixes...),
		Tool:       tool,
		Builder: inventory.BuilderOptions{
			Workers: c.Inventory.Workers,
			Timeout: c.Inventory.Timeout,
		},
	}, nil
}
