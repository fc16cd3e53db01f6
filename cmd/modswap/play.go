package main

import (
	"context"
	"math"
	"time"

	"github.com/cfoust/modswap/pkg/geom"

	"github.com/rs/zerolog/log"
)

func playCommand(configs []string) error {
	session, err := startSession(context.Background(), configs)
	if err != nil {
		return err
	}

	if err := session.Menu.Select(CLI.Play.Pack); err != nil {
		return err
	}

	frame := CLI.Play.Frame
	held := time.Duration(CLI.Play.Seconds * float64(time.Second))

	failed := 0
	impacts := 0
	for elapsed := time.Duration(0); elapsed < held; elapsed += frame {
		// Sweep the muzzle around the arena so shots spread out.
		angle := elapsed.Seconds()
		facing := geom.NewVector(math.Sin(angle), 0, math.Cos(angle))

		if _, err := session.Fire(geom.Zero, facing); err != nil {
			failed++
		}

		impacts += session.Frame(frame)
	}

	// Let the last shots land and their debris expire. Bullets that are
	// still flying are left where they are.
	for session.Busy() {
		impacts += session.Frame(frame)
	}

	active, _ := session.Registry.Active()
	log.Info().
		Str("pack", active.Name).
		Int("fired", session.Weapon.Fired()).
		Int("failed", failed).
		Int("impacts", impacts).
		Int("pooled", session.Bullets.Len()).
		Int("clips", len(session.World.Clips())).
		Msg("done")

	return nil
}
