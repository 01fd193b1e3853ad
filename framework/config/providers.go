package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ProvidersKey is the key holding the ordered provider list in a providers file.
const ProvidersKey = "providers"

// LoadProviders reads the ordered list of provider type names from path.
// The format follows the file extension (yaml, yml, json, toml).
//
//	# config/providers.yaml
//	providers:
//	  - github.com/km-arc/falcon/framework/providers.ConfigServiceProvider
//	  - github.com/km-arc/falcon/framework/providers.LoggingServiceProvider
func LoadProviders(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: providers file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read providers file %s: %w", path, err)
	}

	if !v.IsSet(ProvidersKey) {
		return nil, nil
	}
	return v.GetStringSlice(ProvidersKey), nil
}
