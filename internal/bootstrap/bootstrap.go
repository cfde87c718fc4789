// Package bootstrap wires storage, service, engine and processor from a
// loaded configuration
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"othello/internal/config"
	"othello/internal/engine"
	"othello/internal/game"
	"othello/internal/processor"
	"othello/internal/provision"
	"othello/internal/service"
	"othello/internal/storage"
)

const (
	queueSize       = 256
	shutdownTimeout = 5 * time.Second
)

// Stack is a processor with everything it reports to
type Stack struct {
	Store     *storage.Store
	Service   *service.Service
	Processor *processor.Processor
	queues    []*processor.EventQueue
}

// Open builds the stack. The service observes events directly; every extra
// observer gets its own EventQueue. The processor is not started.
func Open(cfg *config.Config, observers ...game.Observer) (*Stack, error) {
	var store *storage.Store
	if cfg.StoragePath != "" {
		log.Info().Str("path", cfg.StoragePath).Msg("initializing persistent storage")
		var err error
		store, err = storage.NewStore(cfg.StoragePath, cfg.HTTP.Dev)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	} else {
		log.Info().Msg("persistent storage disabled")
	}

	s := &Stack{Store: store, Service: service.New(store, cfg.WaitTimeout)}
	all := []game.Observer{s.Service}
	for _, obs := range observers {
		if obs == nil {
			continue
		}
		q := processor.NewEventQueue(obs, queueSize)
		s.queues = append(s.queues, q)
		all = append(all, q)
	}

	prov := provision.New(provision.NewEmbeddedSource(cfg.DataDir), nil, engine.DataFiles...)
	s.Processor = processor.New(engine.NewLocal(afero.NewOsFs()), prov, game.Observers(all...), processor.Config{
		MinMoveDelay:   cfg.MinMoveDelay,
		InterruptGrace: cfg.InterruptGrace,
		Black:          cfg.Players.Black,
		White:          cfg.Players.White,
		Engine:         cfg.Players.Engine,
		Options:        cfg.Options,
	})
	return s, nil
}

// Close stops the engine, flushes queued events and closes storage
func (s *Stack) Close() error {
	var errs []error
	if err := s.Processor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("processor: %w", err))
	}
	for _, q := range s.queues {
		if err := q.Shutdown(shutdownTimeout); err != nil {
			errs = append(errs, fmt.Errorf("event queue: %w", err))
		}
	}
	if err := s.Service.Close(); err != nil {
		errs = append(errs, fmt.Errorf("service: %w", err))
	}
	return errors.Join(errs...)
}
