package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance    AttendanceHandler
	Break         BreakHandler
	ChangeRequest ChangeRequestHandler
}

type RouterOptions struct {
	// Logger should be built with httplog.SchemaECS ReplaceAttr so request logs share the schema.
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string

	// ClockLimiter throttles clock and break actions. Nil disables throttling.
	ClockLimiter *middleware.RateLimiter
}

func NewRouter(JWTService jwt.Service, handlers Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", metrics.Handler())

	throttle := func(next http.Handler) http.Handler { return next }
	if opts.ClockLimiter != nil {
		throttle = opts.ClockLimiter.Handler
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/registoPonto", func(r chi.Router) {
				r.With(throttle).Post("/registar-ponto", handlers.Attendance.RegisterClock)
				r.With(throttle).Post("/ler-qr", handlers.Attendance.ReadQR)
				r.Put("/editar/{registoId}", handlers.Attendance.Edit)
				r.Get("/estado-ponto", handlers.Attendance.GetBreakState)
				r.Get("/hoje", handlers.Attendance.GetToday)
				r.Get("/meus", handlers.Attendance.ListMine)
				r.Get("/{registoId}", handlers.Attendance.Get)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/registar-para-outro", handlers.Attendance.RegisterForOther)
					r.Get("/", handlers.Attendance.List)
					r.Get("/exportar", handlers.Attendance.Export)
				})
			})

			r.Route("/intervalo", func(r chi.Router) {
				r.With(throttle).Post("/iniciarIntervalo", handlers.Break.Start)
				r.With(throttle).Post("/finalizarIntervalo", handlers.Break.End)
				r.Get("/registo/{registoId}", handlers.Break.ListByEntry)
			})

			r.Route("/pedidoAlteracao", func(r chi.Router) {
				r.Post("/pedidos-alteracao", handlers.ChangeRequest.Create)
				r.Get("/meus", handlers.ChangeRequest.ListMine)

				r.Route("/pedidos-alteracao/{id}", func(r chi.Router) {
					r.Get("/", handlers.ChangeRequest.Get)
					r.Put("/", handlers.ChangeRequest.Update)
					r.Delete("/", handlers.ChangeRequest.Delete)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/", handlers.ChangeRequest.List)
					r.Put("/aprovar/{id}", handlers.ChangeRequest.Approve)
					r.Put("/rejeitar/{id}", handlers.ChangeRequest.Reject)
				})
			})
		})
	})
	return r
}
