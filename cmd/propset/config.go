package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configEnvVar = "PROPSET_CONFIG"

type config struct {
	// written as a "#header" comment line when saving
	Header string `toml:"header"`

	Log   logConfig   `toml:"log"`
	Minio minioConfig `toml:"minio"`
	SSH   sshConfig   `toml:"ssh"`
}

type logConfig struct {
	Dir     string `toml:"dir"`
	Verbose bool   `toml:"verbose"`
}

type minioConfig struct {
	Endpoint string `toml:"endpoint"`
	Access   string `toml:"access-key"`
	Secret   string `toml:"secret-key"`
	Bucket   string `toml:"bucket"`
	Region   string `toml:"region"`
	Insecure bool   `toml:"insecure"`
}

type sshConfig struct {
	User    string `toml:"user"`
	KeyPath string `toml:"key-path"`
	Port    uint   `toml:"port"`
}

// defaultConfigPath returns $PROPSET_CONFIG or ~/.config/propset.toml
func defaultConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "propset.toml")
}

// loadConfig reads config from path. If path is "", the default path is
// used and it's not an error if the file doesn't exist.
func loadConfig(path string) (*config, error) {
	cfg := &config{}
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("loading config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}
