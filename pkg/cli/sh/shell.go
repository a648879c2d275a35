package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/config"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/l0/comm/websocket"
	"github.com/robotalks/buggy.go/pkg/status"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *config.Config
	Conn   *ConnLoop
}

// ConnLoop is a running client with its heartbeat.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	Target string
	Client *comm.Client
	Runner *fx.Runner
	Banner Banner
}

// HeartbeatPeriod is the period of HB sent on a connection, 0 disables.
var HeartbeatPeriod = 200 * time.Millisecond

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	bootWait   = 2 * time.Second
	reqTimeout = time.Second

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&RawCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&HeartbeatPeriod, "hb", HeartbeatPeriod, "Heartbeat period, 0 disables.")
	flag.DurationVar(&bootWait, "boot-wait", bootWait, "Wait for the boot banner after connecting.")
	flag.StringVar(&FirmwareConstraint, "firmware", FirmwareConstraint, "Accepted firmware versions.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

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
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

type jsonLine struct {
	Line string `json:"line"`
	Err  string `json:"error,omitempty"`
}

func (s *Shell) print(c *ishell.Context, line string) {
	if s.OutputJSON {
		out, _ := json.Marshal(jsonLine{Line: line})
		line = string(out)
	}
	if c != nil {
		c.Println(line)
	} else {
		s.Shell.Println(line)
	}
}

// Send writes a command without waiting for a reply.
func Send(c *ishell.Context, line string) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	if err := s.Conn.Client.Send(line); err != nil {
		c.Err(err)
		return err
	}
	if !s.Interactive {
		s.print(c, "OK")
	}
	return nil
}

// DoCommand sends a command and prints the first line matching.
func DoCommand(c *ishell.Context, line string, match comm.Matcher) (string, error) {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return "", err
	}
	ctx, cancel := context.WithTimeout(s.Conn.Ctx, reqTimeout)
	defer cancel()
	reply, err := s.Conn.Client.Request(ctx, line, match)
	if err != nil {
		if err == context.DeadlineExceeded {
			err = fmt.Errorf("command timeout")
		}
		c.Err(err)
		return "", err
	}
	s.print(c, reply)
	return reply, nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Dial opens the link to target: a websocket URL or a serial port.
func Dial(target string, opts comm.PortOptions) (*comm.Link, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return websocket.Dial(target, "http://localhost/")
	}
	return comm.OpenPort(target, opts)
}

// Dial opens the link to target using the port options of the config.
func (s *Shell) Dial(target string) (*comm.Link, error) {
	return Dial(target, s.Config.PortOptions())
}

// Connect connects the robot at target and checks its firmware banner.
func (s *Shell) Connect(target string) error {
	link, err := s.Dial(target)
	if err != nil {
		return err
	}
	conn := &ConnLoop{Target: target, Client: comm.NewClient(link)}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	conn.Runner = fx.NewRunnerWith(conn.Ctx).Go(conn.Client)
	if HeartbeatPeriod > 0 {
		conn.Runner.Go(&Heartbeat{Client: conn.Client, Period: HeartbeatPeriod})
	}

	banner, err := s.waitBanner(conn)
	if err != nil {
		conn.Cancel()
		return err
	}
	conn.Banner = banner
	if s.Conn != nil {
		s.Conn.Cancel()
	}
	s.Conn = conn
	go s.printAsync(conn)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

func (s *Shell) waitBanner(conn *ConnLoop) (Banner, error) {
	timer := time.NewTimer(bootWait)
	defer timer.Stop()
	for {
		select {
		case line := <-conn.Client.LineChan():
			if !comm.HasPrefix(line, status.PrefixBoot) {
				continue
			}
			banner, err := CheckBanner(line, FirmwareConstraint)
			if err != nil {
				return banner, err
			}
			if s.Interactive {
				s.Shell.Printf("Firmware %s%s\n", banner.Version, banner.benchSuffix())
			}
			return banner, nil
		case <-timer.C:
			glog.Warningf("no boot banner from %s, firmware version unknown", conn.Target)
			return Banner{}, nil
		}
	}
}

// printAsync prints lines not consumed by requests.
func (s *Shell) printAsync(conn *ConnLoop) {
	for {
		select {
		case <-conn.Ctx.Done():
			return
		case line := <-conn.Client.LineChan():
			if _, err := CheckBanner(line, FirmwareConstraint); err != nil {
				s.Shell.Printf("firmware rebooted: %v\n", err)
			}
			s.print(nil, line)
		}
	}
}

// Disconnect disconnects current robot.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		if err := s.Conn.Runner.Wait(); err != nil {
			glog.Warningf("disconnect %s: %v", s.Conn.Target, err)
		}
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(s.Config.Port); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		s.Disconnect()
		return
	}
	if s.Interactive {
		s.Shell.Run()
		s.Disconnect()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "PORT|ws://HOST:PORT/",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			target := s.Config.Port
			if len(c.Args) > 0 {
				target = c.Args[0]
			}
			if target == "" {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// RawCmd sends a protocol line as is.
	RawCmd = ishell.Cmd{
		Name:    "raw",
		Aliases: []string{"!"},
		Help:    "LINE",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			Send(c, strings.Join(c.Args, " "))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(config.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
