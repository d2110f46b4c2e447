// Package config loads node settings from the environment. A .env file in
// the working directory is honored when present; real environment variables
// win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Interface       string        // WG_INTERFACE
	Subnet          string        // WG_SUBNET, CIDR; empty means discover from the interface
	ServerEndpoint  string        // SERVER_ENDPOINT, host:port handed to clients
	ServerPublicKey string        // SERVER_PUBLIC_KEY; empty means read from the interface
	StoragePath     string        // STORAGE_PATH, peer registry JSON
	AuditDBPath     string        // AUDIT_DB_PATH; empty disables the journal
	APIToken        string        // API_TOKEN; empty leaves the API open
	AuthMode        string        // AUTH_MODE: token|jwt
	RegistryBackend string        // REGISTRY_BACKEND: file|consul
	ConsulAddr      string        // CONSUL_ADDR
	ListenAddr      string        // LISTEN_ADDR
	CommandTimeout  time.Duration // WG_COMMAND_TIMEOUT
	PersistKeys     bool          // PERSIST_PRIVATE_KEYS
	Keepalive       int           // PEER_KEEPALIVE, seconds
}

// Load builds the configuration from environment variables with sane
// defaults for a single-node deployment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Interface:       getenv("WG_INTERFACE", "wg0"),
		Subnet:          os.Getenv("WG_SUBNET"),
		ServerEndpoint:  os.Getenv("SERVER_ENDPOINT"),
		ServerPublicKey: os.Getenv("SERVER_PUBLIC_KEY"),
		StoragePath:     getenv("STORAGE_PATH", "/var/lib/wgnode/peers.json"),
		AuditDBPath:     os.Getenv("AUDIT_DB_PATH"),
		APIToken:        os.Getenv("API_TOKEN"),
		AuthMode:        getenv("AUTH_MODE", "token"),
		RegistryBackend: getenv("REGISTRY_BACKEND", "file"),
		ConsulAddr:      getenv("CONSUL_ADDR", "127.0.0.1:8500"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
	}

	var err error
	if cfg.CommandTimeout, err = getenvDuration("WG_COMMAND_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PersistKeys, err = getenvBool("PERSIST_PRIVATE_KEYS", true); err != nil {
		return Config{}, err
	}
	if cfg.Keepalive, err = getenvInt("PEER_KEEPALIVE", 25); err != nil {
		return Config{}, err
	}

	switch cfg.AuthMode {
	case "token", "jwt":
	default:
		return Config{}, fmt.Errorf("unsupported AUTH_MODE: %s", cfg.AuthMode)
	}
	switch cfg.RegistryBackend {
	case "file", "consul":
	default:
		return Config{}, fmt.Errorf("unsupported REGISTRY_BACKEND: %s", cfg.RegistryBackend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
