package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// SearchPaths returns the config file candidates in probe order, not
// counting an explicit -C path.
func SearchPaths() []string {
	paths := []string{"config.ini"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "mdc.ini"),
			filepath.Join(home, ".mdc.ini"),
			filepath.Join(home, ".mdc", "config.ini"),
			filepath.Join(home, ".config", "mdc", "config.ini"),
		)
	}
	return paths
}

// Load reads the configuration. With an explicit path the file must
// exist; otherwise the search paths are probed and defaults are used
// when nothing is found.
func Load(explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		for _, candidate := range SearchPaths() {
			if fileExists(candidate) {
				path = candidate
				break
			}
		}
	} else if !fileExists(path) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	cfg := Default()
	if path == "" {
		logrus.Debug("no config file found, using defaults")
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logrus.Infof("using config file: %s", path)
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
