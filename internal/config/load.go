package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the variable that selects the config file.
const EnvVar = "ENV"

// GetEnv returns $ENV, or "local" when it is unset.
func GetEnv() string {
	if env := strings.TrimSpace(os.Getenv(EnvVar)); env != "" {
		return env
	}
	return "local"
}

// Load reads config/<env>.yaml.
func Load(env string) (Config, error) {
	return LoadFile(locate(env + ".yaml"))
}

// LoadFile reads an explicit YAML path over Default and validates the result.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(expandEnv(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// locate looks in ./config, then in the config directory of the source tree
// so tests run from any package find the checked-in files.
func locate(name string) string {
	local := filepath.Join("config", name)
	candidates := []string{local}
	if _, file, _, ok := runtime.Caller(0); ok {
		root := filepath.Join(filepath.Dir(file), "..", "..")
		candidates = append(candidates, filepath.Join(root, "config", name))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); !errors.Is(err, fs.ErrNotExist) {
			return c
		}
	}
	return local
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnv substitutes ${VAR} and ${VAR:-fallback}. The fallback applies
// when VAR is unset or empty. Bare $VAR is left alone.
func expandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		if v := os.Getenv(string(m[1])); v != "" {
			return []byte(v)
		}
		return m[3]
	})
}
