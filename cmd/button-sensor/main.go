// Command button-sensor polls a momentary push button on a GPIO pin and
// publishes press, double press, hold and release gestures to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/button-sensor/internal/config"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/web"
)

var (
	configPath string
	envFile    string
	logLevel   string

	// flagCfg receives flag values; only flags set on the command line
	// override the loaded configuration.
	flagCfg = config.Default()

	mainCmd = &cobra.Command{
		Use:               "button-sensor",
		Short:             "Publish button gestures from a GPIO pin to MQTT",
		PersistentPreRunE: setupLogging,
		RunE:              runDaemon,
		SilenceUsage:      true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the daemon (default)",
		RunE:  runDaemon,
	}
	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Print the current pin level and exit",
		RunE:  runState,
	}
)

func init() {
	pf := mainCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "TOML config file (optional)")
	pf.StringVar(&envFile, "env-file", "", "env file to load instead of ./.env")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	pf.StringVar(&flagCfg.Name, "name", flagCfg.Name, "button name used in MQTT topics")
	pf.IntVar(&flagCfg.Pin, "pin", flagCfg.Pin, "BCM pin number of the button")
	pf.StringVar(&flagCfg.Pull, "pull", flagCfg.Pull, "pull mode: pull-up|pu, pull-down|pd, internal-pull-up|ipu")
	pf.StringVar(&flagCfg.Contact, "contact", flagCfg.Contact, "contact mode: normally-open|no, normally-closed|nc")
	pf.StringVar(&flagCfg.Backend, "backend", flagCfg.Backend, "GPIO backend: gpiocdev or periph")
	pf.StringVar(&flagCfg.Chip, "chip", flagCfg.Chip, "GPIO chip for the gpiocdev backend")
	pf.DurationVar((*time.Duration)(&flagCfg.Poll), "poll", flagCfg.Poll.Std(), "GPIO polling interval")
	pf.DurationVar((*time.Duration)(&flagCfg.PressDebounce), "press-debounce", flagCfg.PressDebounce.Std(), "press debounce window")
	pf.DurationVar((*time.Duration)(&flagCfg.ReleaseDebounce), "release-debounce", flagCfg.ReleaseDebounce.Std(), "release debounce window")
	pf.DurationVar((*time.Duration)(&flagCfg.Hold), "hold", flagCfg.Hold.Std(), "time engaged before a press becomes a hold")
	pf.DurationVar((*time.Duration)(&flagCfg.DoublePress), "double-press", flagCfg.DoublePress.Std(), "max gap from release to the next press for a double press")
	pf.DurationVar((*time.Duration)(&flagCfg.Heartbeat), "heartbeat", flagCfg.Heartbeat.Std(), "heartbeat interval (0 to disable)")
	pf.StringVar(&flagCfg.Broker, "broker", flagCfg.Broker, "MQTT broker address")
	pf.StringVar(&flagCfg.HTTPAddr, "http", flagCfg.HTTPAddr, "HTTP status address (empty to disable)")
	pf.StringVar(&flagCfg.WSBroker, "ws-broker", flagCfg.WSBroker, `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	mainCmd.AddCommand(runCmd, stateCmd)
}

func main() {
	if err := mainCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

// loadConfig layers defaults, the config file, the environment and any
// flags set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(configPath, envFiles...)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("name", func() { cfg.Name = flagCfg.Name })
	set("pin", func() { cfg.Pin = flagCfg.Pin })
	set("pull", func() { cfg.Pull = flagCfg.Pull })
	set("contact", func() { cfg.Contact = flagCfg.Contact })
	set("backend", func() { cfg.Backend = flagCfg.Backend })
	set("chip", func() { cfg.Chip = flagCfg.Chip })
	set("poll", func() { cfg.Poll = flagCfg.Poll })
	set("press-debounce", func() { cfg.PressDebounce = flagCfg.PressDebounce })
	set("release-debounce", func() { cfg.ReleaseDebounce = flagCfg.ReleaseDebounce })
	set("hold", func() { cfg.Hold = flagCfg.Hold })
	set("double-press", func() { cfg.DoublePress = flagCfg.DoublePress })
	set("heartbeat", func() { cfg.Heartbeat = flagCfg.Heartbeat })
	set("broker", func() { cfg.Broker = flagCfg.Broker })
	set("http", func() { cfg.HTTPAddr = flagCfg.HTTPAddr })
	set("ws-broker", func() { cfg.WSBroker = flagCfg.WSBroker })
}

func openReader(cfg config.Config) (gpio.Reader, error) {
	reader, err := gpio.Open(gpio.Options{
		Backend: cfg.Backend,
		Chip:    cfg.Chip,
		PullUp:  cfg.PullMode() == logic.InternalPullUp,
	}, cfg.Pin)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return reader, nil
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reader, err := openReader(cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	high, err := reader.Read(cfg.Pin)
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Println(stateLine(cfg, high))
	return nil
}

func stateLine(cfg config.Config, high bool) string {
	level := logic.Level(high)
	active := logic.ActiveLevel(cfg.PullMode(), cfg.ContactMode())
	engaged := "released"
	if level == active {
		engaged = "engaged"
	}
	return fmt.Sprintf("pin %d: %s (%s)", cfg.Pin, level, engaged)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return run(cfg)
}

func run(cfg config.Config) error {
	reader, err := openReader(cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	topics := mqtt.NewTopics(cfg.Name)
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.Broker,
		ClientID: "button-sensor-" + cfg.Name,
		Topics:   topics,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	ws := resolveWSBroker(cfg.WSBroker, cfg.Broker)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg, ws, topics))
	if ni := readNetworkInfo(); ni != nil {
		tracker.SetNetwork(ni)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	logPublished("startup", publisher.PublishSystem(startupEvent))

	if cfg.HTTPAddr != "" {
		srv, addr, err := startHTTP(cfg.HTTPAddr, tracker)
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", addr)
	}

	log.WithFields(log.Fields{
		"name":      cfg.Name,
		"pin":       cfg.Pin,
		"pull":      cfg.Pull,
		"contact":   cfg.Contact,
		"backend":   cfg.Backend,
		"poll":      cfg.Poll,
		"broker":    cfg.Broker,
		"topic":     topics.Events,
		"heartbeat": cfg.Heartbeat,
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll.Std())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(cfg, reader, publisher, publisher, tracker, time.Now, ticker.C, sigCh)
}

// startHTTP binds addr and serves the status pages in the background.
func startHTTP(addr string, src web.Source) (*web.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("http status server: %w", err)
	}
	srv := web.New(addr, src)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	return srv, ln.Addr(), nil
}

// statusConfig reports the thresholds the debouncer actually runs with,
// after clamping.
func statusConfig(cfg config.Config, wsBroker string, topics mqtt.Topics) status.Config {
	th := logic.EffectiveThresholds(cfg.Thresholds())
	return status.Config{
		Name:              cfg.Name,
		Pin:               cfg.Pin,
		Pull:              cfg.PullMode().String(),
		Contact:           cfg.ContactMode().String(),
		ActiveLevel:       logic.ActiveLevel(cfg.PullMode(), cfg.ContactMode()).String(),
		Backend:           cfg.Backend,
		PollMs:            cfg.Poll.Std().Milliseconds(),
		PressDebounceMs:   int64(th.PressDebounce),
		ReleaseDebounceMs: int64(th.ReleaseDebounce),
		HoldMs:            int64(th.Hold),
		DoublePressMs:     int64(th.DoublePress),
		HeartbeatMs:       cfg.Heartbeat.Std().Milliseconds(),
		Broker:            cfg.Broker,
		HTTPAddr:          cfg.HTTPAddr,
		WSBroker:          wsBroker,
		EventsTopic:       topics.Events,
	}
}

// runLoop samples the button on every tick until a signal arrives. now is
// read once per tick; the debouncer clock and event timestamps both use
// that reading.
func runLoop(cfg config.Config, reader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	t := now()
	tickTime := func() time.Time { return t }

	pull, contact := cfg.PullMode(), cfg.ContactMode()
	levels := gpio.NewLevels(reader, logic.ActiveLevel(pull, contact))
	debouncer := logic.NewDebouncer(cfg.Pin, pull, contact, levels, logic.NewFuncClock(tickTime))
	debouncer.Apply(cfg.Thresholds())
	if got := debouncer.Thresholds(); got != cfg.Thresholds() {
		log.Warnf("thresholds clamped: press_debounce=%d release_debounce=%d hold=%d double_press=%d",
			got.PressDebounce, got.ReleaseDebounce, got.Hold, got.DoublePress)
	}
	recorder := logic.NewRecorder(debouncer, tickTime)

	// Shown on the status page; DEBOUNCING and PRESSED_WAKE keep the previous state.
	state := logic.Unpressed

	updateTracker := func() {
		if tracker == nil {
			return
		}
		tracker.Update(state, int64(debouncer.HoldDuration()), recorder.Counts(), levels.Errors())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			logPublished("shutdown", publisher.PublishSystem(event))
			return nil

		case <-tick:
			t = now()
			c := debouncer.Sample()
			if c != logic.Debouncing && c != logic.PressedWake {
				state = c
			}

			for _, event := range recorder.Drain() {
				log.WithFields(log.Fields{
					"pin":     event.Pin,
					"hold_ms": event.HoldMs,
				}).Infof("event: %s", event.Type)
				if err := publisher.Publish(event); errors.Is(err, mqtt.ErrBuffered) {
					log.Debugf("event %s buffered until the broker is reachable", event.Type)
				} else if err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if hbData := recorder.CheckHeartbeat(t, cfg.Heartbeat.Std()); hbData != nil {
				log.Printf("heartbeat: uptime=%v press=%d double_press=%d hold=%d gpio_errors=%d",
					hbData.Uptime, hbData.Counts.Press, hbData.Counts.DoublePress, hbData.Counts.Hold, levels.Errors())

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if ni := readNetworkInfo(); ni != nil {
						tracker.SetNetwork(ni)
					}
					updateTracker()
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil && !errors.Is(err, mqtt.ErrBuffered) {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			updateTracker()
		}
	}
}

// logPublished reports the outcome of a lifecycle publish. A buffered
// message has not reached the broker yet.
func logPublished(what string, err error) {
	switch {
	case errors.Is(err, mqtt.ErrBuffered):
		log.Warnf("%s event queued, broker not connected", what)
	case err != nil:
		log.Printf("failed to publish %s event: %v", what, err)
	default:
		log.Printf("published %s event", what)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
