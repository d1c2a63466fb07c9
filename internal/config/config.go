// Package config loads daemon settings from defaults, an optional TOML file
// and BUTTON_* environment variables (a .env file is honoured).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
)

// Config holds everything the daemon needs to run one button.
type Config struct {
	Name    string `toml:"name"`
	Pin     int    `toml:"pin"`
	Pull    string `toml:"pull"`
	Contact string `toml:"contact"`
	Backend string `toml:"backend"`
	Chip    string `toml:"chip"`

	Poll            Duration `toml:"poll"`
	PressDebounce   Duration `toml:"press_debounce"`
	ReleaseDebounce Duration `toml:"release_debounce"`
	Hold            Duration `toml:"hold"`
	DoublePress     Duration `toml:"double_press"`
	Heartbeat       Duration `toml:"heartbeat"`

	Broker   string `toml:"broker"`
	HTTPAddr string `toml:"http"`
	WSBroker string `toml:"ws_broker"`
}

// Environment variable names.
const (
	EnvName            = "BUTTON_NAME"
	EnvPin             = "BUTTON_PIN"
	EnvPull            = "BUTTON_PULL"
	EnvContact         = "BUTTON_CONTACT"
	EnvBackend         = "BUTTON_BACKEND"
	EnvChip            = "BUTTON_CHIP"
	EnvPoll            = "BUTTON_POLL"
	EnvPressDebounce   = "BUTTON_PRESS_DEBOUNCE"
	EnvReleaseDebounce = "BUTTON_RELEASE_DEBOUNCE"
	EnvHold            = "BUTTON_HOLD"
	EnvDoublePress     = "BUTTON_DOUBLE_PRESS"
	EnvHeartbeat       = "BUTTON_HEARTBEAT"
	EnvBroker          = "BUTTON_BROKER"
	EnvHTTP            = "BUTTON_HTTP"
	EnvWSBroker        = "BUTTON_WS_BROKER"
)

// Default returns the built-in configuration.
func Default() Config {
	th := logic.DefaultThresholds()
	return Config{
		Name:            "button",
		Pin:             gpio.DefaultPin,
		Pull:            logic.PullDown.String(),
		Contact:         logic.NormallyOpen.String(),
		Backend:         gpio.BackendGPIOCDev,
		Chip:            gpio.DefaultChip,
		Poll:            Duration(10 * time.Millisecond),
		PressDebounce:   Duration(th.PressDebounce.Duration()),
		ReleaseDebounce: Duration(th.ReleaseDebounce.Duration()),
		Hold:            Duration(th.Hold.Duration()),
		DoublePress:     Duration(th.DoublePress.Duration()),
		Heartbeat:       Duration(15 * time.Minute),
		Broker:          "tcp://192.168.1.200:1883",
		HTTPAddr:        ":80",
		WSBroker:        "=broker",
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped if
// path is empty) and the environment. envFiles are loaded into the
// environment first; with none given, ./.env is loaded if present.
// Variables already set in the environment win over .env entries.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			log.Warnf("config: unknown key %q in %s", key.String(), path)
		}
	}

	if len(envFiles) == 0 {
		// .env is optional
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return cfg, fmt.Errorf("load env files: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Name = getEnv(EnvName, c.Name)
	c.Pin = getEnvInt(EnvPin, c.Pin)
	c.Pull = getEnv(EnvPull, c.Pull)
	c.Contact = getEnv(EnvContact, c.Contact)
	c.Backend = getEnv(EnvBackend, c.Backend)
	c.Chip = getEnv(EnvChip, c.Chip)
	c.Poll = getEnvDuration(EnvPoll, c.Poll)
	c.PressDebounce = getEnvDuration(EnvPressDebounce, c.PressDebounce)
	c.ReleaseDebounce = getEnvDuration(EnvReleaseDebounce, c.ReleaseDebounce)
	c.Hold = getEnvDuration(EnvHold, c.Hold)
	c.DoublePress = getEnvDuration(EnvDoublePress, c.DoublePress)
	c.Heartbeat = getEnvDuration(EnvHeartbeat, c.Heartbeat)
	c.Broker = getEnv(EnvBroker, c.Broker)
	c.HTTPAddr = getEnv(EnvHTTP, c.HTTPAddr)
	c.WSBroker = getEnv(EnvWSBroker, c.WSBroker)
}

// maxThreshold is the largest duration that fits the debouncer's millisecond clock.
const maxThreshold = time.Duration(math.MaxUint32) * time.Millisecond

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("config: empty button name")
	}
	if strings.ContainsAny(c.Name, "/+#") {
		return fmt.Errorf("config: button name %q must not contain '/', '+' or '#'", c.Name)
	}
	if c.Pin < 0 {
		return fmt.Errorf("config: invalid pin %d", c.Pin)
	}
	if _, err := ParsePull(c.Pull); err != nil {
		return err
	}
	if _, err := ParseContact(c.Contact); err != nil {
		return err
	}
	switch c.Backend {
	case gpio.BackendGPIOCDev, gpio.BackendPeriph:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Poll.Std() < time.Millisecond {
		return fmt.Errorf("config: poll interval must be at least 1ms, got %v", c.Poll)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat must not be negative, got %v", c.Heartbeat)
	}
	for _, th := range []struct {
		name string
		d    Duration
	}{
		{"press debounce", c.PressDebounce},
		{"release debounce", c.ReleaseDebounce},
		{"hold", c.Hold},
		{"double press", c.DoublePress},
	} {
		if th.d < 0 || th.d.Std() > maxThreshold {
			return fmt.Errorf("config: %s out of range: %v", th.name, th.d)
		}
		if th.d.Std()%time.Millisecond != 0 {
			return fmt.Errorf("config: %s must be whole milliseconds, got %v", th.name, th.d)
		}
	}
	return nil
}

// PullMode returns the parsed pull setting. Call Validate first.
func (c Config) PullMode() logic.PullMode {
	p, _ := ParsePull(c.Pull)
	return p
}

// ContactMode returns the parsed contact setting. Call Validate first.
func (c Config) ContactMode() logic.ContactMode {
	m, _ := ParseContact(c.Contact)
	return m
}

// Thresholds converts the timing settings for Debouncer.Apply.
func (c Config) Thresholds() logic.Thresholds {
	return logic.Thresholds{
		PressDebounce:   logic.MillisOf(c.PressDebounce.Std()),
		ReleaseDebounce: logic.MillisOf(c.ReleaseDebounce.Std()),
		Hold:            logic.MillisOf(c.Hold.Std()),
		DoublePress:     logic.MillisOf(c.DoublePress.Std()),
	}
}

// ParsePull maps a pull mode name to logic.PullMode.
func ParsePull(s string) (logic.PullMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pull-up", "pu":
		return logic.PullUp, nil
	case "pull-down", "pd":
		return logic.PullDown, nil
	case "internal-pull-up", "ipu":
		return logic.InternalPullUp, nil
	}
	return 0, fmt.Errorf("config: unknown pull mode %q", s)
}

// ParseContact maps a contact mode name to logic.ContactMode.
func ParseContact(s string) (logic.ContactMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normally-open", "no":
		return logic.NormallyOpen, nil
	case "normally-closed", "nc":
		return logic.NormallyClosed, nil
	}
	return 0, fmt.Errorf("config: unknown contact mode %q", s)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue Duration) Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := parseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return Duration(d)
}

// parseDuration accepts Go durations ("250ms") or a bare number of milliseconds.
func parseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}
