package watchlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads a watchlist file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the file. ${VAR} references are expanded from the
// environment before parsing.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse watchlist yaml: %w", err)
	}

	return cfg, nil
}
