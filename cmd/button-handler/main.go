// Command button-handler classifies button presses into SHORT_PRESS,
// LONG_PRESS, HOLD and N_MULTI_PRESS actions and publishes them to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/sweeney/button-handler/internal/config"
	"github.com/sweeney/button-handler/internal/eventq"
	"github.com/sweeney/button-handler/internal/evdev"
	"github.com/sweeney/button-handler/internal/gpio"
	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/logx"
	"github.com/sweeney/button-handler/internal/metrics"
	"github.com/sweeney/button-handler/internal/mqtt"
	"github.com/sweeney/button-handler/internal/status"
	"github.com/sweeney/button-handler/internal/tick"
	"github.com/sweeney/button-handler/internal/web"
)

// options holds the parsed command line.
type options struct {
	source    string
	chip      string
	pins      []int
	activeLow bool
	debounce  time.Duration
	device    string
	keys      []uint16

	poll       time.Duration
	base       logic.Config
	configPath string
	queueSize  int

	broker      string
	clientID    string
	topicPrefix string
	heartbeat   time.Duration
	httpAddr    string
	logLevel    string
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "button-handler: %v\n", err)
		os.Exit(2)
	}

	log := logx.NewConsole(opts.logLevel)
	if err := run(opts, log); err != nil {
		log.Error("fatal", logx.Err(err))
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	def := logic.DefaultConfig()

	fs.StringVar(&o.source, "source", "gpio", `Input source: "gpio" or "evdev"`)
	fs.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip name")
	pins := fs.String("pins", "17", "Comma-separated BCM pin numbers; button N is the Nth pin")
	fs.BoolVar(&o.activeLow, "active-low", true, "Buttons pull the line low when pressed")
	fs.DurationVar(&o.debounce, "debounce", gpio.DefaultDebounce, "Kernel debounce period for GPIO lines (0 to disable)")
	fs.StringVar(&o.device, "device", "/dev/input/event0", "Input device for the evdev source")
	keys := fs.String("keys", "28", "Comma-separated key codes for the evdev source; button N is the Nth code")

	fs.DurationVar(&o.poll, "poll", 5*time.Millisecond, "Classification poll interval")
	multi := fs.Bool("multi-press", def.EnableMultiPress, "Detect multi-presses (default for every button)")
	interval := fs.Duration("multi-press-interval", def.MultiPressInterval.Duration(), "Longest gap between presses of a multi-press")
	long := fs.Duration("long-press", def.LongPressThreshold.Duration(), "Held time for LONG_PRESS and HOLD")
	fs.IntVar(&o.base.MaxMultiPress, "max-multi-press", def.MaxMultiPress, "Press count that completes a multi-press immediately")
	fs.StringVar(&o.configPath, "config", "", "YAML or JSON file with per-button overrides and bindings")
	fs.IntVar(&o.queueSize, "queue-size", eventq.DefaultCapacity, "Raw event queue capacity")

	fs.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.StringVar(&o.clientID, "client-id", "button-handler", "MQTT client ID")
	fs.StringVar(&o.topicPrefix, "topic-prefix", mqtt.DefaultPrefix, "MQTT topic prefix")
	fs.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch o.source {
	case "gpio":
		p, err := parseIntList(*pins)
		if err != nil {
			return o, fmt.Errorf("-pins: %w", err)
		}
		o.pins = p
	case "evdev":
		k, err := parseIntList(*keys)
		if err != nil {
			return o, fmt.Errorf("-keys: %w", err)
		}
		for _, code := range k {
			if code > 0xffff {
				return o, fmt.Errorf("-keys: key code %d out of range", code)
			}
			o.keys = append(o.keys, uint16(code))
		}
	default:
		return o, fmt.Errorf("-source: unknown source %q", o.source)
	}

	if o.debounce < 0 {
		return o, fmt.Errorf("%w: -debounce must be >= 0", logic.ErrConfig)
	}
	if o.poll <= 0 {
		return o, fmt.Errorf("%w: -poll must be positive", logic.ErrConfig)
	}
	var err error
	o.base.EnableMultiPress = *multi
	if o.base.MultiPressInterval, err = logic.TicksFromDuration(*interval); err != nil {
		return o, fmt.Errorf("-multi-press-interval: %w", err)
	}
	if o.base.LongPressThreshold, err = logic.TicksFromDuration(*long); err != nil {
		return o, fmt.Errorf("-long-press: %w", err)
	}
	if err := o.base.Validate(); err != nil {
		return o, err
	}
	if !logx.ValidLevel(o.logLevel) {
		return o, fmt.Errorf("-log-level: unknown level %q", o.logLevel)
	}
	return o, nil
}

// parseIntList parses "17, 27,22" into its numbers.
func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", part)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative number %d", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("empty list")
	}
	return out, nil
}

func (o options) buttonCount() int {
	if o.source == "evdev" {
		return len(o.keys)
	}
	return len(o.pins)
}

func run(opts options, log logx.Logger) error {
	n := opts.buttonCount()

	fileCfg := &config.Config{}
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath, opts.base)
		if err != nil {
			return err
		}
		fileCfg = c
	}
	if err := checkButtonRange(fileCfg, n); err != nil {
		return err
	}

	handler, err := logic.NewHandler(n, buttonConfigs(n, opts.base, fileCfg.Buttons))
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}

	m := metrics.New(true)
	queue := eventq.New(opts.queueSize)
	sink := countingSink{queue: queue, metrics: m}

	// Initialize input source
	var (
		source     interface{ Close() error }
		sourceDone <-chan struct{}
	)
	switch opts.source {
	case "evdev":
		var r *evdev.Reader
		r, err = evdev.Open(opts.device, opts.keys, sink, log)
		if err == nil {
			source, sourceDone = r, r.Done()
		}
	default:
		source, err = gpio.NewRealSource(gpio.Options{
			Chip:      opts.chip,
			Pins:      opts.pins,
			ActiveLow: opts.activeLow,
			Debounce:  opts.debounce,
		}, sink)
	}
	if err != nil {
		return fmt.Errorf("init %s source: %w", opts.source, err)
	}
	defer source.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   opts.broker,
		ClientID: opts.clientID,
		Topics:   mqtt.TopicsFor(opts.topicPrefix),
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	bindings := buildBindings(fileCfg.Bindings, publisher, log)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Source:      opts.source,
		Buttons:     n,
		PollMs:      opts.poll.Milliseconds(),
		DebounceMs:  opts.debounce.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		TopicPrefix: opts.topicPrefix,
		HTTPAddr:    opts.httpAddr,
	})
	tracker.Update(handler.Statuses(), handler.Counts())
	tracker.SetMQTTConnected(publisher.IsConnected())

	publisher.OnReconnect(func() {
		tracker.SetMQTTConnected(true)
		if err := publisher.PublishSystem(mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "RECONNECTED",
			Retained:  true,
		}); err != nil {
			log.Warn("failed to publish reconnected event", logx.Err(err))
		}
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warn("failed to publish startup event", logx.Err(err))
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", logx.Err(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", logx.String("addr", opts.httpAddr))
	}

	log.Info("started",
		logx.String("source", opts.source),
		logx.Int("buttons", n),
		logx.Duration("poll", opts.poll),
		logx.Duration("heartbeat", opts.heartbeat),
		logx.Int("bindings", bindings.Len()),
	)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sdnotify(log, daemon.SdNotifyReady)
	defer sdnotify(log, daemon.SdNotifyStopping)

	return runLoop(loop{
		handler:    handler,
		queue:      queue,
		bindings:   bindings,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    m,
		log:        log,
		heartbeat:  opts.heartbeat,
		clock:      tick.Monotonic,
		now:        time.Now,
		sourceDone: sourceDone,
	}, ticker.C, sigCh)
}

// checkButtonRange rejects overrides and bindings for buttons the source does not provide.
func checkButtonRange(cfg *config.Config, n int) error {
	if hi := cfg.MaxButton(); hi >= n {
		return fmt.Errorf("%w: config references button %d but the source has %d buttons", logic.ErrConfig, hi, n)
	}
	return nil
}

// buttonConfigs gives every button the flag defaults unless the file overrides it.
// Overrides for ids outside 0..n-1 are passed through so NewHandler rejects them.
func buttonConfigs(n int, base logic.Config, overrides map[int]logic.Config) map[int]logic.Config {
	out := make(map[int]logic.Config, n)
	for id := 0; id < n; id++ {
		out[id] = base
	}
	for id, cfg := range overrides {
		out[id] = cfg
	}
	return out
}

// buildBindings turns configured bindings into callbacks that publish the
// binding's payload.
func buildBindings(entries []config.Binding, publisher mqtt.Publisher, log logx.Logger) *logic.Bindings {
	b := logic.NewBindings()
	for _, entry := range entries {
		b.Bind(entry.Action, entry.Button, func(e logic.Event) {
			if err := publisher.PublishRaw(entry.Topic, []byte(entry.Payload), entry.Retained); err != nil {
				log.Warn("binding publish failed",
					logx.Stringer("event", e),
					logx.String("topic", entry.Topic),
					logx.Err(err))
				return
			}
			log.Debug("binding fired", logx.Stringer("event", e), logx.String("topic", entry.Topic))
		})
	}
	return b
}

// countingSink counts raw events before queueing them.
type countingSink struct {
	queue   *eventq.Queue
	metrics *metrics.Metrics
}

func (s countingSink) Push(e logic.RawEvent) bool {
	s.metrics.RawEvent(e)
	return s.queue.Push(e)
}

func sdnotify(log logx.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warn("sdnotify failed", logx.String("state", state), logx.Err(err))
	}
}
