// Package config resolves runtime settings from defaults, an optional .env
// file and ANALYTICS_* environment variables.
package config

import (
	"fmt"
	"go-forum-analytics/internal/warehouse"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ANALYTICS"

// Config holds everything the CLI and the API server need.
type Config struct {
	Addr      string
	StorePath string
	OutputDir string
	Warehouse warehouse.Config
}

// Load builds a Config. dotEnvPath is loaded first when it exists; a missing
// file is not an error. Variables already set in the environment win over the file.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, fmt.Errorf("config.godotenv(%s): %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.os.Stat(%s): %w", dotEnvPath, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("store.path", "analytics.db")
	v.SetDefault("output.dir", "exports")
	v.SetDefault("warehouse.host", "")
	v.SetDefault("warehouse.port", 5432)
	v.SetDefault("warehouse.user", "")
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.database", "rdw")
	v.SetDefault("warehouse.sslmode", "require")
	v.SetDefault("warehouse.connectTimeout", 10*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Addr:      v.GetString("addr"),
		StorePath: v.GetString("store.path"),
		OutputDir: v.GetString("output.dir"),
		Warehouse: warehouse.Config{
			Host:           v.GetString("warehouse.host"),
			Port:           v.GetInt("warehouse.port"),
			User:           v.GetString("warehouse.user"),
			Password:       v.GetString("warehouse.password"),
			Database:       v.GetString("warehouse.database"),
			SSLMode:        v.GetString("warehouse.sslmode"),
			ConnectTimeout: v.GetDuration("warehouse.connectTimeout"),
		},
	}, nil
}
