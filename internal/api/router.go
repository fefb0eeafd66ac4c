package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/api/handlers"
	"github.com/baharkarakas/blog-backend/internal/metrics"
	"github.com/baharkarakas/blog-backend/internal/middleware"
	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/services"
	"github.com/baharkarakas/blog-backend/internal/telemetry"
)

type RouterDeps struct {
	Log     *zap.Logger
	Guard   *middleware.AuthMiddleware
	Limiter middleware.Limiter
	Health  repository.Pinger

	AuthSvc *services.AuthService
	UserSvc *services.UserService
	PostSvc *services.PostService

	CORSOrigins    []string
	UploadDir      string
	UploadMaxBytes int64
	RequestTimeout time.Duration
	Tracing        bool
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	authH := handlers.NewAuthHandler(d.AuthSvc)
	userH := handlers.NewUserHandler(d.UserSvc)
	postH := handlers.NewPostHandler(d.PostSvc, d.UploadMaxBytes)
	healthH := handlers.NewHealthHandler(d.Health)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, middleware.RequestLogger(log), middleware.Recover(log), middleware.HTTPMetrics)
	if d.Tracing {
		r.Use(telemetry.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	if d.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir)))
		r.Get("/uploads/*", noDirListing(files))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.Limiter, log))
			if d.RequestTimeout > 0 {
				r.Use(chimw.Timeout(d.RequestTimeout))
			}

			// ---------- public ----------
			r.Post("/auth/signup", authH.Signup)
			r.Post("/auth/login", authH.Login)
			r.Get("/blogs", postH.List)
			r.Get("/blogs/{slug}", postH.Get)
			r.Get("/search", postH.Search)

			// ---------- authenticated ----------
			r.Group(func(r chi.Router) {
				r.Use(d.Guard.Protect)

				r.Get("/profile", userH.Profile)
				r.Put("/profile", userH.UpdateProfile)

				r.Get("/saved-blogs", postH.ListSaved)
				r.Post("/saved-blogs/{slug}", postH.Save)
				r.Delete("/saved-blogs/{slug}", postH.Unsave)

				// ---------- admin ----------
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin))

					r.Post("/blogs", postH.Create)
					r.Delete("/blogs/{slug}", postH.Delete)
					r.Get("/users", userH.List)
					r.Delete("/users/{id}", userH.Delete)
				})
			})
		})
	})

	return r
}

func noDirListing(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}
}
