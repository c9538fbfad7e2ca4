package llmclient

import (
	"os"

	"github.com/joho/godotenv"
)

// EnvConfig is additive local configuration sourced from environment
// variables (optionally loaded from a .env file via LoadEnvConfig). It is
// never required: New never reads the environment on its own.
type EnvConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// LoadEnvConfig loads a .env file at path (if it exists; a missing file
// is not an error) and reads LLMCLIENT_BASE_URL, LLMCLIENT_API_KEY, and
// LLMCLIENT_MODEL from the resulting environment.
func LoadEnvConfig(path string) (EnvConfig, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return EnvConfig{}, err
		}
	}
	return EnvConfig{
		BaseURL: os.Getenv("LLMCLIENT_BASE_URL"),
		APIKey:  os.Getenv("LLMCLIENT_API_KEY"),
		Model:   os.Getenv("LLMCLIENT_MODEL"),
	}, nil
}
