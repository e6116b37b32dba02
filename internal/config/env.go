package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the process bootstrap settings read from the environment. The
// live gateway configuration document (gui_config.json) is handled by Store;
// Env only covers what must be known before the Config Store can be opened.
type Env struct {
	ListenAddr string
	DataDir    string
}

// LoadEnv reads bootstrap settings from .env (if present) and the process
// environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	e := &Env{
		ListenAddr: getEnv("GATEWAY_LISTEN_ADDR", ":8081"),
		DataDir:    getEnv("GATEWAY_DATA_DIR", "./data"),
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks that required bootstrap settings are present.
func (e *Env) Validate() error {
	if e.DataDir == "" {
		return fmt.Errorf("GATEWAY_DATA_DIR is required but not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
