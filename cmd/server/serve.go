package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/Meet/internal/adapters/http"
	"github.com/dkeye/Meet/internal/adapters/signal"
	"github.com/dkeye/Meet/internal/adapters/store/memory"
	"github.com/dkeye/Meet/internal/adapters/store/mongo"
	"github.com/dkeye/Meet/internal/adapters/store/postgres"
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the signaling server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "listen port")
	cmd.Flags().String("mode", "release", "gin mode: debug or release")
	cmd.Flags().String("store", "memory", "store driver: memory, mongo or postgres")
	return cmd
}

func openStore(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	switch cfg.Driver {
	case "mongo":
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		s, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil
	case "memory":
		log.Warn().Str("module", "main").Msg("using in-memory store, data is not persisted")
		s := memory.New()
		seedMemory(s, cfg.SeedMeetings)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// seedMemory loads the configured meetings and their breakout rooms.
func seedMemory(s *memory.Store, seeds []config.SeedMeeting) {
	for _, m := range seeds {
		participants := make([]domain.UserID, 0, len(m.Participants))
		for _, p := range m.Participants {
			participants = append(participants, domain.UserID(p))
		}
		id := s.AddMeeting(domain.Meeting{
			Code:         domain.RoomCode(m.Code),
			Title:        m.Title,
			HostID:       domain.UserID(m.Host),
			Capacity:     m.Capacity,
			Participants: participants,
			Active:       true,
		})
		for _, b := range m.Breakouts {
			s.AddBreakoutRoom(domain.BreakoutRoom{
				Code:     domain.RoomCode(b.Code),
				Name:     b.Name,
				Capacity: b.Capacity,
				Status:   domain.BreakoutStatus(b.Status),
			}, id)
		}
		log.Info().Str("module", "main").Str("room", m.Code).Int("breakouts", len(m.Breakouts)).Msg("seeded meeting")
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := openStore(connectCtx, cfg.Store)
	connectCancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	o := orch.New(app.NewRegistry(), app.NewDirectory(), app.SimplePolicy{}, store)
	if cfg.Store.PersistTimeout > 0 {
		o.PersistTimeout = cfg.Store.PersistTimeout
	}

	var limiter *signal.RoomRateLimiter
	if cfg.JoinRate.Limit > 0 {
		limiter = signal.NewRoomRateLimiter(cfg.JoinRate.Limit, cfg.JoinRate.Interval)
		go limiter.Run(ctx)
	}
	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:   cfg.ReadLimit,
		PingPeriod:  cfg.PingPeriod,
		WriteWait:   cfg.WriteWait,
		SendBuffer:  cfg.SendBuffer,
		JoinLimiter: limiter,
	})

	r := router.SetupRouter(ctx, cfg, o, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("Meet server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = store.Close(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Readers exit once ctx is cancelled; only then can no new writes start.
	ctrl.Wait()
	o.Wait()
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
