package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Pprof struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"pprof"`
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Providers struct {
		NominatimBaseURL   string `mapstructure:"nominatimBaseURL"`
		OverpassBaseURL    string `mapstructure:"overpassBaseURL"`
		OSRMBaseURL        string `mapstructure:"osrmBaseURL"`
		WikivoyageBaseURL  string `mapstructure:"wikivoyageBaseURL"`
		OpenMeteoGeoURL    string `mapstructure:"openMeteoGeoURL"`
		OpenMeteoBaseURL   string `mapstructure:"openMeteoBaseURL"`
		DefaultCountryCode string `mapstructure:"defaultCountryCode"`
	} `mapstructure:"providers"`
	LLM struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"llm"`
	Planner struct {
		MaxCandidates   int           `mapstructure:"maxCandidates"`
		SessionTTL      time.Duration `mapstructure:"sessionTTL"`
		RateLimitPerMin int           `mapstructure:"rateLimitPerMin"`
	} `mapstructure:"planner"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
