// Command unspool streams generated markdown into a terminal, revealing it
// at a steady pace and following the bottom until the reader scrolls away.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... unspool [flags]
//	unspool -file reply.md [flags]
//
// Flags:
//
//	-config string        Path to config file (default: ~/.config/unspool/config.toml)
//	-print-config         Print the effective configuration and exit
//	-file string          Replay a local markdown file instead of calling the API
//	-fail-at int          With -file, fail the stream after this many bytes (default: never)
//	-model string         Model ID (default: gemini-2.5-flash)
//	-system-prompt string Path to system prompt file (default: .unspool/prompt.md)
//	-api-key string       API key (overrides GEMINI_API_KEY)
//	-log string           Path to log file (default: no logging)
//	-log-level string     Log level (default: info)
//	-metrics-addr string  Serve Prometheus metrics on this address
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	bt "github.com/fwojciec/unspool/bubbletea"
	ulogrus "github.com/fwojciec/unspool/logrus"
	uprom "github.com/fwojciec/unspool/prometheus"
	"github.com/fwojciec/unspool/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const defaultPromptPath = ".unspool/prompt.md"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "unspool: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", toml.DefaultPath(), "Path to config file")
		printConfig = flag.Bool("print-config", false, "Print the effective configuration and exit")
		replayPath  = flag.String("file", "", "Replay a local markdown file instead of calling the API")
		failAt      = flag.Int("fail-at", -1, "With -file, fail the stream after this many bytes")
		model       = flag.String("model", "", "Model ID")
		promptPath  = flag.String("system-prompt", defaultPromptPath, "Path to system prompt file")
		apiKey      = flag.String("api-key", "", "API key (overrides GEMINI_API_KEY)")
		logPath     = flag.String("log", "", "Path to log file")
		logLevel    = flag.String("log-level", "info", "Log level")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	)
	flag.Parse()

	cfg, err := toml.Load(*configPath)
	if err != nil {
		return err
	}
	if *printConfig {
		out, err := toml.Encode(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	logger, closer, err := ulogrus.Open(*logPath, *logLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	systemPrompt, err := readPrompt(*promptPath)
	if err != nil {
		return err
	}

	// Resolve the source. Env vars are read here and passed as values.
	src, err := resolveSource(ctx, sourceConfig{
		replayPath:   *replayPath,
		failAt:       *failAt,
		model:        *model,
		systemPrompt: systemPrompt,
		apiKeyFlag:   *apiKey,
		envKey:       os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return err
	}

	opts := []bt.Option{
		bt.WithLogger(logger),
		bt.WithModelName(*model),
	}
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, bt.WithRecorder(uprom.New(reg)))

		shutdown, err := serveMetrics(*metricsAddr, reg, ulogrus.Named(logger, "metrics"))
		if err != nil {
			return err
		}
		defer shutdown()
	}

	logger.WithField("config", *configPath).Info("starting")
	if err := bt.Run(ctx, bt.New(src, cfg, opts...)); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// readPrompt loads the system prompt. A missing default file means no
// system prompt; every other error is reported.
func readPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, os.ErrNotExist) && path == defaultPromptPath:
		return "", nil
	default:
		return "", fmt.Errorf("read system prompt: %w", err)
	}
}
