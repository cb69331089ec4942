package tokens

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Email string `envconfig:"USER_EMAIL"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
