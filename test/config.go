package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SCENARIO_POLL_INTERVAL shortens or lengthens the client poll loop
	PollInterval time.Duration `envconfig:"SCENARIO_POLL_INTERVAL" default:"25ms"`
	// SCENARIO_CONVERGE_TIMEOUT bounds how long a delta is allowed to take
	ConvergeTimeout time.Duration `envconfig:"SCENARIO_CONVERGE_TIMEOUT" default:"5s"`
	CensoredWords   []string      `envconfig:"SCENARIO_CENSORED_WORDS" default:"weasel"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
