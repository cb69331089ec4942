package stream

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// PollInterval is how often the stream checks the store for new
	// notifications per connection.
	PollInterval time.Duration `envconfig:"NOTIFICATION_POLL_INTERVAL" default:"2s"`
	PingInterval time.Duration `envconfig:"NOTIFICATION_PING_INTERVAL" default:"30s"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
