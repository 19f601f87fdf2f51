package main

import (
	"io/ioutil"
	"time"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/router"

	"github.com/jsccast/yaml"
)

// TimerSpec declares a directive injection: one-shot (In) or
// recurring (Cron).
type TimerSpec struct {
	Id string `json:"id" yaml:"id"`

	// In is a Go duration for a one-shot timer.
	In string `json:"in,omitempty" yaml:"in,omitempty"`

	// Cron is a cron expression for a recurring timer.
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty"`

	Directive *directive.Directive `json:"directive" yaml:"directive"`
}

// Duration parses the spec's In.
func (s *TimerSpec) Duration() (time.Duration, error) {
	return time.ParseDuration(s.In)
}

// Config is a batond config file.
type Config struct {
	Routes []*router.RouteSpec `json:"routes" yaml:"routes"`
	Timers []*TimerSpec        `json:"timers,omitempty" yaml:"timers,omitempty"`
}

// ReadConfig reads a YAML config file.
func ReadConfig(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
