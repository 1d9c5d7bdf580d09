package wave

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wavedac/pkg/cli/sh"
	"github.com/robotalks/wavedac/pkg/protocol"
)

// DefaultWatchCount is the number of samples printed by watch.
const DefaultWatchCount = 10

// WatchTimeout bounds the wait for each sample.
var WatchTimeout = 2 * time.Second

// ParseCount parses the optional sample count argument.
func ParseCount(args []string) (int, error) {
	if len(args) == 0 {
		return DefaultWatchCount, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid COUNT %q", args[0])
	}
	return n, nil
}

// Status is the connection status.
type Status struct {
	Port      string             `json:"port"`
	Connected bool               `json:"connected"`
	Link      protocol.LinkStats `json:"link"`
	Overruns  uint64             `json:"overruns"`
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return fmt.Sprintf("%s connected=%v samples=%d replies=%d dropped=%d overruns=%d",
		s.Port, s.Connected, s.Link.Samples, s.Link.Replies, s.Link.Dropped, s.Overruns)
}

var (
	// StartCmd starts streaming.
	StartCmd = ishell.Cmd{
		Name:    "start",
		Aliases: []string{"b"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, (*protocol.Client).StartStreaming)
		}),
	}

	// StopCmd stops streaming.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, (*protocol.Client).StopStreaming)
		}),
	}

	// WaveCmd selects the waveform.
	WaveCmd = ishell.Cmd{
		Name:    "wave",
		Aliases: []string{"w"},
		Help:    "sine|triangle",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("WAVEFORM required"))
				return
			}
			w, err := protocol.ParseWaveform(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(client *protocol.Client) error {
				return client.SelectWaveform(w)
			})
		}),
	}

	// RangeCmd selects the output range.
	RangeCmd = ishell.Cmd{
		Name:    "range",
		Aliases: []string{"r"},
		Help:    "small|large",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("RANGE required"))
				return
			}
			r, err := protocol.ParseRange(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(client *protocol.Client) error {
				return client.SelectRange(r)
			})
		}),
	}

	// WatchCmd prints received samples.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"x"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			n, err := ParseCount(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			samples := sh.ShellFrom(c).Conn.Client.Samples()
			for i := 0; i < n; i++ {
				select {
				case s := <-samples:
					sh.Print(c, map[string]interface{}{"raw": uint16(s), "volts": s.Volts()}, s.String())
				case <-time.After(WatchTimeout):
					c.Err(fmt.Errorf("no sample received, streaming not started?"))
					return
				}
			}
		}),
	}

	// StatusCmd prints the connection status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			conn := sh.ShellFrom(c).Conn
			status := Status{
				Port:      conn.Port,
				Connected: conn.Client.IsConnected(),
				Link:      conn.Client.Link().Stats(),
				Overruns:  conn.Client.Overruns(),
			}
			sh.Print(c, status, status.String())
		}),
	}
)

func init() {
	sh.AddCmds(
		&StartCmd,
		&StopCmd,
		&WaveCmd,
		&RangeCmd,
		&WatchCmd,
		&StatusCmd,
	)
}
