package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"gopkg.in/yaml.v2"
)

const DEFAULT_ROOT_PATH = "/etc/properties"

const (
	StoreBackendZookeeper = "zookeeper"
	StoreBackendETCD      = "etcd"
	StoreBackendBBolt     = "bbolt"
)

//go:embed default_config.json
var defaultConfigJSON []byte

type Config struct {
	StoreBackend                 string   `json:"store_backend" yaml:"store_backend"`
	StoreURLs                    []string `json:"store_urls" yaml:"store_urls"`
	StoreRootPath                string   `json:"store_root_path" yaml:"store_root_path"`
	StoreConnectTimeoutInSeconds uint64   `json:"store_connect_timeout_in_seconds" yaml:"store_connect_timeout_in_seconds"`
	StoreRequestTimeoutInSeconds uint64   `json:"store_request_timeout_in_seconds" yaml:"store_request_timeout_in_seconds"`
	StoreMaxConcurrentRequests   int      `json:"store_max_concurrent_requests" yaml:"store_max_concurrent_requests"`
	BBoltPath                    string   `json:"bbolt_path" yaml:"bbolt_path"`

	APIServerAddress string `json:"api_server_address" yaml:"api_server_address"`
	APIServerPort    int    `json:"api_server_port" yaml:"api_server_port"`

	LogLevelString string `json:"log_level" yaml:"log_level"`
	DebugAddress   string `json:"debug_address" yaml:"debug_address"`
}

func DefaultConfig() (Config, error) {
	return FromJSON(defaultConfigJSON)
}

func FromJSON(encoded []byte) (Config, error) {
	var config Config
	err := json.Unmarshal(encoded, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func FromYAML(encoded []byte) (Config, error) {
	var config Config
	err := yaml.Unmarshal(encoded, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func FromFile(path string) (Config, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FromYAML(encoded)
	default:
		return FromJSON(encoded)
	}
}

func (conf Config) RootPath() string {
	if conf.StoreRootPath == "" {
		return DEFAULT_ROOT_PATH
	}
	return path.Clean(conf.StoreRootPath)
}

func (conf Config) StoreConnectTimeout() time.Duration {
	return time.Duration(conf.StoreConnectTimeoutInSeconds) * time.Second
}

func (conf Config) StoreRequestTimeout() time.Duration {
	return time.Duration(conf.StoreRequestTimeoutInSeconds) * time.Second
}

func (conf Config) LogLevel() (lager.LogLevel, error) {
	switch strings.ToLower(conf.LogLevelString) {
	case "debug":
		return lager.DEBUG, nil
	case "info", "":
		return lager.INFO, nil
	case "error":
		return lager.ERROR, nil
	case "fatal":
		return lager.FATAL, nil
	default:
		return lager.INFO, fmt.Errorf("unknown log level: %q", conf.LogLevelString)
	}
}

func (conf Config) Validate() error {
	switch conf.StoreBackend {
	case StoreBackendZookeeper, StoreBackendETCD:
		if len(conf.StoreURLs) == 0 {
			return fmt.Errorf("store_urls is required for the %s backend", conf.StoreBackend)
		}
	case StoreBackendBBolt:
		if conf.BBoltPath == "" {
			return fmt.Errorf("bbolt_path is required for the bbolt backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", conf.StoreBackend)
	}

	if !strings.HasPrefix(conf.RootPath(), "/") {
		return fmt.Errorf("store_root_path must be absolute: %q", conf.RootPath())
	}

	if conf.RootPath() == "/" {
		return fmt.Errorf("store_root_path must name a node below the store root")
	}

	if conf.StoreConnectTimeoutInSeconds == 0 {
		return fmt.Errorf("store_connect_timeout_in_seconds must be positive")
	}

	if conf.StoreMaxConcurrentRequests <= 0 {
		return fmt.Errorf("store_max_concurrent_requests must be positive")
	}

	_, err := conf.LogLevel()
	return err
}
