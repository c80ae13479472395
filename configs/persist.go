package configs

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// PersistNickname writes client.nickname into the config file so later client commands can
// omit it. Comments in the file are not preserved.
func PersistNickname(filename, nickname string) error {
	var config map[string]any

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// loads entire config
	if err := toml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if config == nil {
		config = map[string]any{}
	}
	client, _ := config["client"].(map[string]any)
	if client == nil {
		client = map[string]any{}
		config["client"] = client
	}
	client["nickname"] = nickname

	data, err = toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling error: %w", err)
	}
	return os.WriteFile(filename, data, 0o600)
}
