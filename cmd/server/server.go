package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ironbook/internal/engine"
	"ironbook/internal/server"
)

const defaultWorkers = 8

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Instrument books are created lazily on first order, so the engine
	// starts with none registered.
	eng := engine.New()
	srv := server.New("0.0.0.0:9001", eng, defaultWorkers)

	var t tomb.Tomb
	t.Go(func() error {
		return srv.Run(&t)
	})

	go func() {
		<-ctx.Done()
		t.Kill(nil)
	}()

	if err := t.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
