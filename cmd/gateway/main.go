package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	api "github.com/zulfa-ai/project-iris-backend/internal/api/http"
	"github.com/zulfa-ai/project-iris-backend/internal/auth"
	"github.com/zulfa-ai/project-iris-backend/internal/config"
	"github.com/zulfa-ai/project-iris-backend/internal/db"
	"github.com/zulfa-ai/project-iris-backend/internal/gameplay"
	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}

	users := auth.NewUserRepo(dbh)
	if err := users.SeedAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatal().Err(err).Msg("seed admin failed")
	}

	// --- Scenario provider ---
	var provider scenario.Provider
	switch cfg.ScenarioDriver {
	case "sql":
		provider = scenario.NewSQLProvider(dbh)
	default:
		fs, err := scenario.NewFSProvider(cfg.ScenarioDir)
		if err != nil {
			log.Fatal().Err(err).Msg("scenario dir")
		}
		provider = fs
	}
	provider = scenario.NewCachingProvider(provider, time.Minute)

	// --- Core ---
	store := gameplay.NewSQLStore(dbh, cfg.DBDriver)
	engine := gameplay.NewEngine(provider, store, cfg.WrongLimit, log)

	// --- Auth ---
	authSvc := auth.NewService(cfg.AuthHMACSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(api.RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Post("/auth/login", auth.LoginHandler(authSvc, users))
		ar.Post("/auth/refresh", auth.RefreshHandler(authSvc))

		// Scenario content is public, same as the original service.
		ar.Get("/topics", api.TopicsHandler(provider))
		ar.Get("/scenario/{topic}", api.ScenarioDetailHandler(provider))

		ar.Route("/gameplay", func(gr chi.Router) {
			gr.Get("/health", api.HealthHandler())

			gr.Group(func(pr chi.Router) {
				pr.Use(auth.JWTMiddleware(authSvc))
				pr.Post("/session/start", api.StartSessionHandler(engine))
				pr.Get("/session/{sessionID}/current", api.CurrentStateHandler(engine))
				pr.Post("/session/{sessionID}/answer", api.SubmitAnswerHandler(engine))
				pr.Post("/session/{sessionID}/quit", api.QuitSessionHandler(engine))
				pr.Get("/sessions/history", api.HistoryHandler(engine))
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info().Str("addr", cfg.HTTPAddr).Str("db", cfg.DBDriver).
		Str("scenarios", cfg.ScenarioDriver).Msg("listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
