package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	scpi "github.com/hootrhino/goscpi"
)

// Config is the optional YAML configuration for mdoctl. Command-line flags
// override it.
type Config struct {
	Resource      string `yaml:"resource"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	OpenTimeoutMs int    `yaml:"open_timeout_ms"`
	QueryDelayMs  int    `yaml:"query_delay_ms"`
	LogLevel      string `yaml:"log_level"`
	Serial        struct {
		BaudRate int    `yaml:"baud_rate"`
		DataBits int    `yaml:"data_bits"`
		StopBits int    `yaml:"stop_bits"`
		Parity   string `yaml:"parity"`
	} `yaml:"serial"`
}

// loadConfig reads a YAML configuration file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mdoctl [flags] <command> [args]

Commands:
  idn                         print the instrument identification string
  raw <scpi>                  send a raw command; queries (ending in ?) print the answer
  get <field> [channel]       read a setting
  set <field> [channel] <val> write a setting

Fields: label coupling bandwidth scale position mathtype mathdef xscale xposition

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		resourceFlag = flag.String("resource", "", "VISA resource name, e.g. TCPIP0::192.168.1.20::4000::SOCKET")
		configFlag   = flag.String("config", "", "path to a YAML config file")
		debugFlag    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debugFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := &Config{}
	if *configFlag != "" {
		loaded, err := loadConfig(*configFlag)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
		if cfg.LogLevel != "" {
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				log.Fatalf("config: invalid log level %q", cfg.LogLevel)
			}
			log.SetLevel(level)
		}
	}
	if *resourceFlag != "" {
		cfg.Resource = *resourceFlag
	}
	if cfg.Resource == "" {
		log.Fatal("no resource name given; use -resource or a config file")
	}
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	session := scpi.DefaultSessionConfig()
	if cfg.TimeoutMs > 0 {
		session.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	if cfg.OpenTimeoutMs > 0 {
		session.OpenTimeout = time.Duration(cfg.OpenTimeoutMs) * time.Millisecond
	}
	if cfg.QueryDelayMs > 0 {
		session.QueryDelay = time.Duration(cfg.QueryDelayMs) * time.Millisecond
	}
	if cfg.Serial.BaudRate > 0 {
		session.Serial.BaudRate = cfg.Serial.BaudRate
		session.Serial.DataBits = cfg.Serial.DataBits
		session.Serial.StopBits = cfg.Serial.StopBits
		session.Serial.Parity = cfg.Serial.Parity
	}

	log.Debugf("opening %s", cfg.Resource)
	scope, err := scpi.DialMDO34(cfg.Resource, &session)
	if err != nil {
		log.Fatalf("open %s: %v", cfg.Resource, err)
	}
	defer scope.Close()

	if err := scope.DisableResponseHeader(); err != nil {
		log.Fatalf("disable response header: %v", err)
	}

	if err := run(scope, flag.Args()); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(scope *scpi.MDO34, args []string) error {
	switch args[0] {
	case "idn":
		idn, err := scope.IDN()
		if err != nil {
			return err
		}
		fmt.Println(strings.TrimSpace(idn))
		return nil

	case "raw":
		if len(args) != 2 {
			return fmt.Errorf("raw requires exactly one SCPI string")
		}
		if strings.Contains(args[1], "?") {
			resp, err := scope.Query(args[1])
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(resp))
			return nil
		}
		_, err := scope.Command(args[1])
		return err

	case "get":
		return runGet(scope, args[1:])

	case "set":
		return runSet(scope, args[1:])

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runGet(scope *scpi.MDO34, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("get requires a field name")
	}
	field := args[0]

	channel := 1
	if len(args) > 1 {
		ch, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid channel %q", args[1])
		}
		channel = ch
	}

	switch field {
	case "label":
		return printString(scope.GetChannelLabel(channel))
	case "coupling":
		return printString(scope.GetChannelCoupling(channel))
	case "bandwidth":
		return printFloat(scope.GetChannelBandwidth(channel))
	case "scale":
		return printFloat(scope.GetChannelScale(channel))
	case "position":
		return printFloat(scope.GetChannelPosition(channel))
	case "mathtype":
		return printString(scope.GetMathType(channel))
	case "mathdef":
		return printString(scope.GetMathFunction(channel))
	case "xscale":
		return printFloat(scope.GetXScale())
	case "xposition":
		return printFloat(scope.GetXPosition())
	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

func runSet(scope *scpi.MDO34, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("set requires a field name and a value")
	}
	field := args[0]

	// Horizontal fields take no channel argument.
	if field == "xscale" || field == "xposition" {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[1])
		}
		if field == "xscale" {
			return scope.SetXScale(value)
		}
		return scope.SetXPosition(value)
	}

	if len(args) < 3 {
		return fmt.Errorf("set %s requires a channel and a value", field)
	}
	channel, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid channel %q", args[1])
	}
	raw := args[2]

	switch field {
	case "label":
		return scope.SetChannelLabel(channel, raw)
	case "coupling":
		return scope.SetChannelCoupling(channel, raw)
	case "mathtype":
		return scope.SetMathType(channel, raw)
	case "mathdef":
		return scope.SetMathFunction(channel, raw)
	case "bandwidth", "scale", "position":
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", raw)
		}
		switch field {
		case "bandwidth":
			return scope.SetChannelBandwidth(channel, value)
		case "scale":
			return scope.SetChannelScale(channel, value)
		default:
			return scope.SetChannelPosition(channel, value)
		}
	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

func printString(value string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func printFloat(value float64, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}
