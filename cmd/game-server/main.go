package main

import (
	"context"
	"net/http"
	"time"

	appclick "lastclick/internal/app/click"
	"lastclick/internal/config"
	"lastclick/internal/events"
	"lastclick/internal/logging"
	"lastclick/internal/ratelimit"
	"lastclick/internal/scheduler"
	"lastclick/internal/store"
	httptransport "lastclick/internal/transport/http"
	"lastclick/internal/ws"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	clock := clockwork.NewRealClock()
	var pub events.Publisher = events.Noop{}
	var hub *ws.Hub
	if cfg.Server.NATSURL != "" {
		nc, err := events.Connect(cfg.Server.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Server.NATSURL).Msg("nats connect failed")
		}
		pub = events.NewNATS(nc)
		hub = ws.NewHub()
		if err := hub.AttachNATS(nc); err != nil {
			log.Fatal().Err(err).Msg("hub subscribe failed")
		}
	} else {
		log.Warn().Msg("NATS_URL unset; live feed disabled, clients poll")
	}

	limiter := ratelimit.NewPostgres(st, clock)
	clickSvc := appclick.NewService(st, pub, limiter, clock, cfg.Server)
	tick := scheduler.New(st, clickSvc, pub, clock, cfg.Scheduler).WithSweeper(limiter)
	if cfg.Scheduler.InternalLoop {
		tick.StartLoop(context.Background())
		log.Info().Dur("interval", cfg.Scheduler.TickInterval).Msg("internal scheduler loop started")
	}

	r := httptransport.NewRouter(cfg.Server, httptransport.Deps{
		Store:   st,
		Tick:    tick,
		Hub:     hub,
		Pub:     pub,
		Limiter: limiter,
		Clock:   clock,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
