package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/handlers"
	"todo/internal/middleware"
	"todo/internal/ratelimit"
	"todo/internal/repository"
	"todo/internal/services"
	"todo/internal/validation"
)

// Deps carries what the router needs from main. Images and Limiter are
// optional; Hasher defaults to bcrypt at auth.PasswordCost.
type Deps struct {
	DB      *sql.DB
	Config  *config.Config
	Logger  zerolog.Logger
	Mailer  services.EmailSender
	Images  services.ImageStore
	Limiter *ratelimit.Limiter
	Hasher  auth.PasswordHasher
}

func SetupRoutes(d Deps) (*chi.Mux, error) {
	v, err := validation.New()
	if err != nil {
		return nil, err
	}
	hasher := d.Hasher
	if hasher == nil {
		bh, err := auth.NewBcryptHasher(auth.PasswordCost)
		if err != nil {
			return nil, err
		}
		hasher = bh
	}

	cfg := d.Config
	users := repository.NewUserRepository(d.DB)
	todos := repository.NewTodoRepository(d.DB)
	resetTokens := services.NewResetTokenStore(repository.NewResetTokenRepository(d.DB), cfg.ResetTokenTTL)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	policy := auth.NewPolicy()

	authSvc := services.NewAuthService(services.AuthServiceDeps{
		Users:       users,
		Tokens:      resetTokens,
		Issuer:      issuer,
		Hasher:      hasher,
		Mailer:      d.Mailer,
		FrontendURL: cfg.FrontendURL,
		Logger:      d.Logger,
	})
	todoSvc := services.NewTodoService(todos, policy)
	userSvc := services.NewUserService(users, hasher, d.Images, policy)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.NewHealthHandler(d.DB).Health)
	r.Handle("/metrics", promhttp.Handler())
	RegisterSwaggerRoutes(r)

	authenticate := middleware.Authenticate(issuer, users)
	r.Route("/api/v1", func(r chi.Router) {
		RegisterAuthRoutes(r, handlers.NewAuthHandler(authSvc, v), d.Limiter)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			RegisterTodoRoutes(r, handlers.NewTodoHandler(todoSvc, v))
			RegisterUserRoutes(r, handlers.NewUserHandler(userSvc, v))
		})
	})

	return r, nil
}
