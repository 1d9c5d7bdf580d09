package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	env "github.com/robotalks/wavedac/pkg/env/host"
	"github.com/robotalks/wavedac/pkg/hal/uart"
	"github.com/robotalks/wavedac/pkg/protocol"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// ReplyWait is how long a command waits for an error reply.
	ReplyWait time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *env.Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	defaultReplyWait  = 100 * time.Millisecond
)

var (
	// flags

	evalOnly    bool
	outputJSON  bool
	autoConnect bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&autoConnect, "connect", autoConnect, "Connect the device on start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		ReplyWait:   defaultReplyWait,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(protocol.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Print prints v as JSON in JSON mode, or as text otherwise.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// DrainReplies discards queued replies.
func DrainReplies(replies <-chan *protocol.Reply) {
	for {
		select {
		case <-replies:
		default:
			return
		}
	}
}

// AwaitError waits up to timeout for an error reply. Commands are not
// acknowledged, so silence means success.
func AwaitError(replies <-chan *protocol.Reply, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case r := <-replies:
			if err := r.Err(); err != nil {
				return err
			}
		case <-deadline:
			return nil
		}
	}
}

// DoCommand sends a command and reports an error reply, if any.
func DoCommand(c *ishell.Context, send func(*protocol.Client) error) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		c.Err(protocol.ErrNotConnected)
		return protocol.ErrNotConnected
	}
	client := s.Conn.Client
	DrainReplies(client.Replies())
	err := send(client)
	if err == nil {
		err = AwaitError(client.Replies(), s.ReplyWait)
	}
	if err != nil {
		c.Err(err)
		return err
	}
	Print(c, map[string]bool{"ok": true}, "OK")
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the device on port, or discovers it if port is empty.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	conf.Port = port
	conn, err := conf.Dial(context.Background())
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conn.Port))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Println("Connecting ...")
		}
		if err := s.Connect(s.Config.Port); err != nil {
			log.Fatalf("connect failed: %v", err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := uart.ListPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				Print(c, ports, "")
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// DiscoverCmd finds the port a device answers on.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := uart.ListPorts()
			if err != nil {
				c.Err(err)
				return
			}
			port, err := protocol.Discover(context.Background(), ports, s.Config.Opener(), s.Config.ProbeTimeout)
			if err == protocol.ErrNoDevice {
				Print(c, map[string]string{}, "No device found")
				return
			}
			if err != nil {
				c.Err(err)
				return
			}
			Print(c, map[string]string{"port": port}, port)
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.LoadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).WithAutoConnect(autoConnect).Run(flag.Args()...)
}
