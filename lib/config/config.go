// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/checker"
	"github.com/ferrite-os/ferrite/lib/digest"
)

// EnvVar is the environment variable naming the config file.
const EnvVar = "FERRITE_CONFIG"

// Policy names accepted in the policy field.
const (
	PolicyNone   = "none"
	PolicyNull   = "null"
	PolicyNames  = "names"
	PolicySHA256 = "sha256"
	PolicySHA384 = "sha384"
	PolicySHA512 = "sha512"
	PolicyRSA    = "rsa"
)

// Config selects the credential checking policy and its inputs.
type Config struct {
	// Policy is the checking policy name: none, null, names, sha256,
	// sha384, sha512, or rsa.
	Policy string `yaml:"policy"`

	// TrustedKeys are paths to PEM-encoded PKIX public keys trusted
	// by the rsa policy. Ignored by other policies.
	TrustedKeys []string `yaml:"trusted_keys,omitempty"`

	// TableCapacity is the process table size. Zero defaults to 16.
	TableCapacity int `yaml:"table_capacity,omitempty"`

	// PermissionsFile is where the storage permission table persists.
	// Empty disables persistence.
	PermissionsFile string `yaml:"permissions_file,omitempty"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn, or error. Empty means info.
	Level string `yaml:"level,omitempty"`
}

// Load reads configuration from flagPath, or from the file named by
// the FERRITE_CONFIG environment variable when flagPath is empty.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return nil, fmt.Errorf("no config file: pass --config or set %s", EnvVar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.PermissionsFile = expandVars(cfg.PermissionsFile)
	for i, key := range cfg.TrustedKeys {
		cfg.TrustedKeys[i] = expandVars(key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Policy {
	case PolicyNone, PolicyNull, PolicyNames, PolicySHA256, PolicySHA384, PolicySHA512:
	case PolicyRSA:
		if len(c.TrustedKeys) == 0 {
			errs = append(errs, fmt.Errorf("policy rsa requires at least one trusted_keys entry"))
		}
	case "":
		errs = append(errs, fmt.Errorf("policy is required"))
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}

	if c.TableCapacity < 0 {
		errs = append(errs, fmt.Errorf("table_capacity %d is negative", c.TableCapacity))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Logger builds a slog logger per the log section, writing to stderr.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// BuildPolicy constructs the configured checking policy. A nil policy
// (with nil error) means no checking: every binary runs.
func (c *Config) BuildPolicy() (checker.Policy, error) {
	switch c.Policy {
	case PolicyNone:
		return nil, nil
	case PolicyNull:
		return checker.NewNullPolicy(), nil
	case PolicyNames:
		return checker.NewNamesPolicy(), nil
	case PolicySHA256:
		return checker.NewHashPolicy(appbin.FormatSHA256, digest.NewSoftware(digest.SHA256))
	case PolicySHA384:
		return checker.NewHashPolicy(appbin.FormatSHA384, digest.NewSoftware(digest.SHA384))
	case PolicySHA512:
		return checker.NewHashPolicy(appbin.FormatSHA512, digest.NewSoftware(digest.SHA512))
	case PolicyRSA:
		keys, err := loadTrustedKeys(c.TrustedKeys)
		if err != nil {
			return nil, err
		}
		return checker.NewRSAPolicy(keys)
	default:
		return nil, fmt.Errorf("unknown policy %q", c.Policy)
	}
}

// loadTrustedKeys reads PEM-encoded PKIX RSA public keys. Every PEM
// block in every file must be an RSA public key; anything else is a
// configuration error, not something to skip silently.
func loadTrustedKeys(paths []string) ([]*rsa.PublicKey, error) {
	var keys []*rsa.PublicKey
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading trusted key: %w", err)
		}
		rest := data
		found := 0
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				break
			}
			parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parsing trusted key %s: %w", path, err)
			}
			key, ok := parsed.(*rsa.PublicKey)
			if !ok {
				return nil, fmt.Errorf("trusted key %s is %T, want RSA", path, parsed)
			}
			keys = append(keys, key)
			found++
		}
		if found == 0 {
			return nil, fmt.Errorf("trusted key %s contains no PEM blocks", path)
		}
	}
	return keys, nil
}
