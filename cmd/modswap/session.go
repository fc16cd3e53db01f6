package main

import (
	"context"
	"time"

	"github.com/cfoust/modswap/pkg/config"
	"github.com/cfoust/modswap/pkg/game"
)

// How long to wait for every catalog to load before giving up.
const startTimeout = 30 * time.Second

func startSession(ctx context.Context, configs []string) (*game.Session, error) {
	cfg, err := config.Process(configs)
	if err != nil {
		return nil, err
	}

	store, err := game.NewStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	session, err := game.New(cfg, store)
	if err != nil {
		return nil, err
	}

	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	settleCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := session.Settle(settleCtx); err != nil {
		return nil, err
	}

	return session, nil
}
