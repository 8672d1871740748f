package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/gemini"
	"github.com/fwojciec/unspool/replay"
)

type sourceConfig struct {
	replayPath   string
	failAt       int
	model        string
	systemPrompt string
	apiKeyFlag   string
	envKey       string
}

// resolveSource selects and constructs the generation source. A replay
// file wins over the API. All env var values are passed in through cfg;
// env is only read in main().
func resolveSource(ctx context.Context, cfg sourceConfig) (unspool.Source, error) {
	if cfg.replayPath != "" {
		src, err := replay.Open(cfg.replayPath, replay.WithFailAt(cfg.failAt))
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		return src, nil
	}
	if cfg.failAt >= 0 {
		return nil, errors.New("-fail-at requires -file")
	}

	// Explicit flag overrides env var.
	key := cfg.apiKeyFlag
	if key == "" {
		key = cfg.envKey
	}
	if key == "" {
		return nil, errors.New("GEMINI_API_KEY not set (use -api-key flag, environment variable, or -file)")
	}

	var opts []gemini.Option
	if cfg.model != "" {
		opts = append(opts, gemini.WithModel(cfg.model))
	}
	if cfg.systemPrompt != "" {
		opts = append(opts, gemini.WithSystemPrompt(cfg.systemPrompt))
	}
	client, err := gemini.New(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
