package host

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wavedac/pkg/env"
	"github.com/robotalks/wavedac/pkg/hal/uart"
	"github.com/robotalks/wavedac/pkg/protocol"
)

// Config provides common options for host tools.
type Config struct {
	// Port is the serial port of the device. The port is discovered when
	// empty.
	Port         string        `yaml:"port"`
	Baud         int           `yaml:"baud"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// MQTTURL specifies the MQTT broker of the bridge.
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL  string `yaml:"mqtt_url"`
	DeviceID string `yaml:"device_id"`
	HTTPAddr string `yaml:"http_addr"`
}

var (
	defaultConfig = Config{
		Baud:         uart.DefaultBaudRate,
		ProbeTimeout: protocol.DefaultConnectTimeout,
		MQTTURL:      "mqtt://localhost:1883/wavedac/",
		HTTPAddr:     ":8080",
	}
	configFile string
)

func init() {
	if val := os.Getenv("WAVEDAC_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("WAVEDAC_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	defaultConfig.DeviceID = env.DeviceID()
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the device, discovered if empty.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ProbeTimeout, "probe-timeout", defaultConfig.ProbeTimeout, "Time to wait for the device to answer.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID used in MQTT topics.")
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "HTTP listen address for metrics and sample feed.")
	flag.StringVar(&configFile, "config", configFile, "YAML config file, overrides flags.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadConfig creates a Config and applies the config file if specified.
func LoadConfig() (*Config, error) {
	conf := NewConfig()
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

// LoadFile applies a YAML config file.
func (c *Config) LoadFile(path string) error {
	return env.LoadFile(path, c)
}

// Opener opens serial ports with the configured baud rate.
func (c *Config) Opener() protocol.Opener {
	return func(name string) (io.ReadWriteCloser, error) {
		return uart.OpenSerial(name, c.Baud)
	}
}

// Conn is a connected device.
type Conn struct {
	Port   string
	Client *protocol.Client

	stream io.ReadWriteCloser
	cancel context.CancelFunc
	doneCh chan struct{}
}

// Dial connects to the device on the configured port, or on the first
// port answering when no port is configured.
func (c *Config) Dial(ctx context.Context) (*Conn, error) {
	return c.DialWith(ctx, c.Opener(), uart.ListPorts)
}

// DialWith is Dial with custom port opener and lister.
func (c *Config) DialWith(ctx context.Context, open protocol.Opener, list func() ([]string, error)) (*Conn, error) {
	name := c.Port
	if name == "" {
		ports, err := list()
		if err != nil {
			return nil, fmt.Errorf("list ports: %v", err)
		}
		if name, err = protocol.Discover(ctx, ports, open, c.ProbeTimeout); err != nil {
			return nil, err
		}
		glog.Infof("device discovered on %s", name)
	}
	stream, err := open(name)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	conn := &Conn{
		Port:   name,
		Client: protocol.NewClient(protocol.NewLink(stream)),
		stream: stream,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	go func() {
		defer close(conn.doneCh)
		if err := conn.Client.Run(runCtx); err != nil && err != context.Canceled {
			glog.Warningf("link %s stopped: %v", name, err)
		}
	}()
	if err := conn.Client.Connect(ctx, c.ProbeTimeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect %s: %v", name, err)
	}
	return conn, nil
}

// Done is closed when the link stops.
func (c *Conn) Done() <-chan struct{} {
	return c.doneCh
}

// Close closes the link and the port.
func (c *Conn) Close() error {
	c.cancel()
	err := c.stream.Close()
	<-c.doneCh
	return err
}
