package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	sender "github.com/itzg/zabbix-sender"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	envServer = "ZABBIX_HOST"
	envPort   = "ZABBIX_SENDER_PORT"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file with server and port")
		server     = flag.String("server", "", "Zabbix server or proxy address (env "+envServer+")")
		port       = flag.Int("port", 0, "trapper port (env "+envPort+", default 10051)")
		host       = flag.String("host", "", "host name the item belongs to")
		key        = flag.String("key", "", "item key")
		value      = flag.String("value", "", "item value; numeric input is sent as a number")
		clock      = flag.Int64("clock", 0, "item timestamp in epoch seconds; zero lets the server stamp it")
		timeout    = flag.Duration("timeout", 10*time.Second, "limit for the whole exchange")
		debug      = flag.Bool("debug", false, "log each protocol step")
	)
	flag.Parse()

	logger := initLogger(*debug)

	cfg, err := resolveConfig(*configPath, *server, *port)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	s, err := sender.New(cfg, sender.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create sender")
	}

	item := sender.NewItem(*host, *key, parseValue(*value))
	if *clock != 0 {
		item = item.WithClock(*clock)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := s.Send(ctx, item)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", s.Addr()).Msg("send failed")
	}
	fmt.Printf("response: %s, processed: %d, failed: %d, total: %d, seconds spent: %f\n",
		resp.Status, resp.Processed, resp.Failed, resp.Total, resp.SecondsSpent)
}

func initLogger(debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "zabbix-sender").Logger()
	log.Logger = logger
	return logger
}

// resolveConfig layers flags over environment over the config file.
func resolveConfig(path, server string, port int) (sender.Config, error) {
	var cfg sender.Config
	if path != "" {
		loaded, err := sender.LoadConfig(path)
		if err != nil {
			return sender.Config{}, err
		}
		cfg = loaded
	}

	if v := os.Getenv(envServer); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv(envPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return sender.Config{}, fmt.Errorf("%s: %w", envPort, err)
		}
		cfg.Port = p
	}

	if server != "" {
		cfg.Server = server
	}
	if port != 0 {
		cfg.Port = port
	}
	return cfg, cfg.Validate()
}

func parseValue(raw string) interface{} {
	var n json.Number
	if err := json.Unmarshal([]byte(raw), &n); err == nil {
		return n
	}
	return raw
}
