// maestro-tail streams live session output from a Maestro server to
// stdout, reconnecting automatically when the server restarts.
//
// Configuration is read from a YAML file (default .maestro/tail.yaml),
// overridable per-field by flags; ServerURL and Token additionally fall
// back to the MAESTRO_SERVER_URL and MAESTRO_TOKEN environment variables.
//
// Usage:
//
//	maestro-tail -server ws://localhost:8127 -session abc123
//	MAESTRO_TOKEN=... maestro-tail -config ./tail.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	maestro "github.com/maestro/go-sdk"
)

const defaultConfigPath = ".maestro/tail.yaml"

type fileConfig struct {
	ServerURL            string        `yaml:"server_url"`
	Token                string        `yaml:"token"`
	SessionID            string        `yaml:"session_id"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	PingInterval         time.Duration `yaml:"ping_interval"`
}

func loadFileConfig(path string, explicit bool) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to YAML config file")
	server := flag.String("server", "", "Maestro server WebSocket URL (overrides config)")
	token := flag.String("token", "", "authentication token (overrides config)")
	session := flag.String("session", "", "session id to tail (overrides config; empty tails all)")
	verbose := flag.Bool("verbose", false, "log connection state and dropped frames")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	cfg, err := loadFileConfig(*configPath, *configPath != defaultConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *server != "" {
		cfg.ServerURL = *server
	}
	if *token != "" {
		cfg.Token = *token
	}
	if *session != "" {
		cfg.SessionID = *session
	}

	client, err := maestro.NewClient(maestro.Config{
		ServerURL:            cfg.ServerURL,
		Token:                cfg.Token,
		SessionID:            cfg.SessionID,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		PingInterval:         cfg.PingInterval,
		Logger:               logger,
	}, maestro.EventHandlers{
		OnSessionOutput: func(ev maestro.SessionOutputEvent) {
			fmt.Print(ev.Data)
		},
		OnSessionExit: func(ev maestro.SessionExitEvent) {
			fmt.Fprintf(os.Stderr, "\n[session %s exited with code %d]\n", ev.SessionID, ev.ExitCode)
		},
		OnSessionStateChange: func(ev maestro.SessionStateChangeEvent) {
			logger.Info().Str("session", ev.SessionID).Str("state", ev.State).Msg("session state")
		},
		OnStateChange: func(s maestro.ConnState) {
			logger.Info().Stringer("state", s).Msg("connection")
		},
		OnError: maestro.LogErrors(logger),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("connect")
	}
	defer client.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
}
