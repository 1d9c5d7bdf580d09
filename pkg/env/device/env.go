package device

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/wavedac/pkg/env"
	"github.com/robotalks/wavedac/pkg/firmware"
	fx "github.com/robotalks/wavedac/pkg/framework"
	"github.com/robotalks/wavedac/pkg/hal/sim"
	"github.com/robotalks/wavedac/pkg/hal/uart"
)

// Config provides options to run a simulated device.
type Config struct {
	// Port is the serial port the device talks on, usually one end of a
	// pseudo terminal pair.
	Port          string        `yaml:"port"`
	Baud          int           `yaml:"baud"`
	SampleRate    float64       `yaml:"sample_rate"`
	WaveFrequency float64       `yaml:"wave_frequency"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

var (
	defaultConfig = Config{
		Baud:          uart.DefaultBaudRate,
		SampleRate:    sim.DefaultSampleRate,
		WaveFrequency: sim.DefaultWaveFrequency,
		PollInterval:  fx.DefaultInterval,
	}
	configFile string
)

func init() {
	if val := os.Getenv("WAVEDAC_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("WAVEDAC_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the device.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.Float64Var(&defaultConfig.SampleRate, "sample-rate", defaultConfig.SampleRate, "Samples per second while streaming.")
	flag.Float64Var(&defaultConfig.WaveFrequency, "wave-freq", defaultConfig.WaveFrequency, "Frequency of the generated waveform in Hz.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll-interval", defaultConfig.PollInterval, "Dispatch loop poll interval.")
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

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("serial port must be specified")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %v", c.SampleRate)
	}
	if c.WaveFrequency <= 0 {
		return fmt.Errorf("invalid wave frequency: %v", c.WaveFrequency)
	}
	return nil
}

// Env is a simulated device running on a serial port.
type Env struct {
	Config    *Config
	Port      serial.Port
	Transport *uart.Transport
	Board     *sim.Board
	Device    *firmware.Device
}

// NewEnv opens the port and builds the device.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	port, err := uart.OpenSerial(c.Port, c.Baud)
	if err != nil {
		return nil, err
	}
	e := &Env{
		Config:    c,
		Port:      port,
		Transport: uart.New(port),
		Board:     sim.NewBoard(c.SampleRate, c.WaveFrequency),
	}
	e.Device = firmware.NewDevice(e.Board.Hardware(e.Transport))
	glog.Infof("device on %s: %v samples/s, %vHz wave", c.Port, c.SampleRate, c.WaveFrequency)
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop starts the device and adds it to the loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Interval = e.Config.PollInterval
	e.Device.Start()
	loop.Add(e.Device)
}

// Close stops the device and closes the port.
func (e *Env) Close() error {
	e.Device.Stop()
	return e.Port.Close()
}
