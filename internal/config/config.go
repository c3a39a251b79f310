package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	GRPCPort     int
	ModelPath    string
	MetadataPath string
	ORTLibPath   string
	CacheBytes   int
	CacheTTL     time.Duration
	AllowOrigin  string
	ShutdownWait time.Duration
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load parses server flags. Each flag defaults to its environment variable,
// and to the built-in value when that is unset. Relative paths resolve
// against the project root.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	var cacheMB int

	fs.StringVar(&cfg.Host, "host", getEnv("CARBON_HOST", "0.0.0.0"), "HTTP bind host")
	fs.IntVar(&cfg.Port, "port", getEnvInt("CARBON_PORT", 5001), "HTTP port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", getEnvInt("CARBON_GRPC_PORT", 0), "gRPC health port (0 disables)")
	fs.StringVar(&cfg.ModelPath, "model-path", getEnv("CARBON_MODEL_PATH", filepath.Join("models", "carbon_footprint_model.onnx")), "ONNX model path")
	fs.StringVar(&cfg.MetadataPath, "metadata-path", getEnv("CARBON_METADATA_PATH", filepath.Join("models", "carbon_footprint_model.json")), "optional model metadata JSON")
	fs.StringVar(&cfg.ORTLibPath, "ort-lib", getEnv("CARBON_ORT_LIB", ""), "onnxruntime shared library path (empty uses the system default)")
	fs.IntVar(&cacheMB, "cache-mb", getEnvInt("CARBON_CACHE_MB", 0), "prediction cache size in MB (0 disables)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", getEnvDuration("CARBON_CACHE_TTL", 0), "prediction cache entry lifetime (0 keeps entries until evicted)")
	fs.StringVar(&cfg.AllowOrigin, "allow-origin", getEnv("CARBON_ALLOW_ORIGIN", "*"), "Access-Control-Allow-Origin value")
	fs.DurationVar(&cfg.ShutdownWait, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.GRPCPort < 0 || cfg.GRPCPort > 65535 {
		return nil, fmt.Errorf("invalid grpc port %d", cfg.GRPCPort)
	}
	if cfg.GRPCPort != 0 && cfg.GRPCPort == cfg.Port {
		return nil, fmt.Errorf("grpc port %d collides with http port", cfg.GRPCPort)
	}
	if cacheMB < 0 {
		return nil, fmt.Errorf("invalid cache size %dMB", cacheMB)
	}
	cfg.CacheBytes = cacheMB << 20

	root, err := ProjectRoot()
	if err != nil {
		return nil, err
	}
	cfg.ModelPath = Resolve(root, cfg.ModelPath)
	cfg.MetadataPath = Resolve(root, cfg.MetadataPath)
	return cfg, nil
}

// ProjectRoot is the working directory, or two levels up when the binary is
// run from inside cmd/<name>.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", ".."), nil
	}
	return wd, nil
}

func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(root, path))
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return d
}
