package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	appclick "lastclick/internal/app/click"
	apppublic "lastclick/internal/app/public"
	"lastclick/internal/config"
	"lastclick/internal/events"
	"lastclick/internal/ratelimit"
	"lastclick/internal/scheduler"
	"lastclick/internal/store"
	"lastclick/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Deps carries everything the router wires together. The hub is optional;
// without it the /ws route is not registered and clients poll.
type Deps struct {
	Store   *store.Store
	Tick    *scheduler.Tick
	Hub     *ws.Hub
	Pub     events.Publisher
	Limiter ratelimit.Limiter
	Clock   clockwork.Clock
}

func NewRouter(cfg config.ServerConfig, d Deps) *chi.Mux {
	clickSvc := appclick.NewService(d.Store, d.Pub, d.Limiter, d.Clock, cfg)
	publicSvc := apppublic.NewService(d.Store, d.Clock)

	gameHandlers := NewGameHandlers(clickSvc, publicSvc)
	cronHandlers := NewCronHandlers(d.Tick)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Route("/cron", func(r chi.Router) {
			r.Use(CronAuthMiddleware(cfg.CronSecret))
			// GET mirrors POST because hosted cron schedulers only send GET.
			r.Get("/tick", cronHandlers.Tick())
			r.Post("/tick", cronHandlers.Tick())
			r.Get("/rotate", cronHandlers.Rotate())
			r.Post("/rotate", cronHandlers.Rotate())
			r.Get("/reset-credits", cronHandlers.ResetCredits())
			r.Post("/reset-credits", cronHandlers.ResetCredits())
		})

		r.Get("/games", gameHandlers.Games())
		r.Get("/games/{game_id}", gameHandlers.Game())
		r.Post("/games/{game_id}/click", gameHandlers.Click())
		r.Post("/games/bot-click", gameHandlers.BotClick())
		r.Get("/clicks/recent", gameHandlers.RecentClicks())

		r.Get("/health", HealthHandler(d.Store))
	})

	if d.Hub != nil {
		r.Get("/ws", d.Hub.Handler())
	}
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
