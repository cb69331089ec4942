package server

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"9898"`

	// Broker selects the copy-execution adapter: simulated, bridge, binance.
	Broker string `envconfig:"BROKER_ADAPTER" default:"simulated"`

	BridgeURL    string `envconfig:"BRIDGE_URL"`
	BridgeAPIKey string `envconfig:"BRIDGE_API_KEY"`

	BinanceAPIKey    string `envconfig:"BINANCE_API_KEY"`
	BinanceAPISecret string `envconfig:"BINANCE_API_SECRET"`
	BinanceEndpoint  string `envconfig:"BINANCE_ENDPOINT"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
