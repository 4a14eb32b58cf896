package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/thiefmaster/signallight/apis"
	"github.com/thiefmaster/signallight/logging"
	"github.com/thiefmaster/signallight/protocol"
)

// Light state names used by the event loop.
const (
	stateIdle    = "idle"
	stateMessage = "message"
	stateMention = "mention"
)

// lookConfig describes what the light shows for one state: either a static color or
// two flashing colors.
type lookConfig struct {
	Color  string
	Flash  []string
	Period time.Duration
}

type remoteConfig struct {
	Port    int
	Origins []string
}

type appConfig struct {
	Port        string
	ReadTimeout time.Duration `yaml:"readTimeout"`
	DeviceID    *int          `yaml:"deviceID"`
	States      map[string]lookConfig
	NotHub      *apis.HTTPCredentials `yaml:"nothub"`
	Mattermost  *apis.MattermostSettings
	Remote      *remoteConfig
}

func defaultConfig() appConfig {
	return appConfig{
		Port:        "/dev/ttyUSB0",
		ReadTimeout: 500 * time.Millisecond,
		States: map[string]lookConfig{
			stateIdle:        {Color: "off"},
			apis.FeedOffline: {Flash: []string{"orange", "off"}, Period: time.Second},
			"ok":             {Color: "green"},
			"warning":        {Color: "yellow"},
			"alert":          {Flash: []string{"red", "off"}, Period: 500 * time.Millisecond},
			stateMessage:     {Color: "blue"},
			stateMention:     {Flash: []string{"magenta", "blue"}, Period: 500 * time.Millisecond},
		},
	}
}

func (c *appConfig) load(path string) error {
	logging.GetLogger().Info("loading config file", zap.String("path", path))
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	// a states section replaces the default states instead of merging into them
	var sections struct {
		States map[string]lookConfig
	}
	if err = yaml.Unmarshal(yamlFile, &sections); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	if sections.States != nil {
		c.States = nil
	}
	if err = yaml.UnmarshalStrict(yamlFile, c); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	return nil
}

// looks validates the configured states.
func (c *appConfig) looks() (map[string]look, error) {
	looks := make(map[string]look, len(c.States))
	for name, lc := range c.States {
		l, err := lc.parse()
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", name, err)
		}
		looks[name] = l
	}
	if _, ok := looks[stateIdle]; !ok {
		return nil, fmt.Errorf("state %q must be configured", stateIdle)
	}
	return looks, nil
}

func (c *appConfig) validate() error {
	if c.Port == "" {
		return errors.New("no serial port configured")
	}
	if c.DeviceID != nil && (*c.DeviceID < 0 || *c.DeviceID > 255) {
		return fmt.Errorf("deviceID %d is not a byte", *c.DeviceID)
	}
	if c.NotHub != nil && c.NotHub.BaseURL == "" {
		return errors.New("nothub: url is required")
	}
	if c.Mattermost != nil && (c.Mattermost.ServerURL == "" || c.Mattermost.TeamName == "" || c.Mattermost.ChannelName == "") {
		return errors.New("mattermost: url, team and channel are required")
	}
	if c.Remote != nil && (c.Remote.Port <= 0 || c.Remote.Port > 65535) {
		return fmt.Errorf("remote: invalid port %d", c.Remote.Port)
	}
	_, err := c.looks()
	return err
}

type look struct {
	color    protocol.Color
	flashing bool
	flash    [2]protocol.Color
	period   time.Duration
}

func (lc lookConfig) parse() (look, error) {
	switch {
	case lc.Color != "" && len(lc.Flash) > 0:
		return look{}, errors.New("color and flash are mutually exclusive")
	case len(lc.Flash) > 0:
		if len(lc.Flash) != 2 {
			return look{}, fmt.Errorf("flash needs exactly 2 colors, got %d", len(lc.Flash))
		}
		l := look{flashing: true, period: lc.Period}
		for i, name := range lc.Flash {
			color, err := protocol.ParseColor(name)
			if err != nil {
				return look{}, err
			}
			l.flash[i] = color
		}
		return l, nil
	default:
		color, err := protocol.ParseColor(lc.Color)
		if err != nil {
			return look{}, err
		}
		return look{color: color}, nil
	}
}
