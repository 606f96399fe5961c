package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/infra/http/handlers"
	"github.com/xavierca1/quiz-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/quiz-funnel/internal/infra/queue"
)

type routes struct {
	quiz     *handlers.QuizHandler
	webhook  *handlers.WebhookHandler
	metaTest *handlers.MetaTestHandler
	health   *handlers.HealthHandler
}

func newRouter(cfg *config.Config, h routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Signature", "X-Hotmart-Signature"},
	}))

	quizLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Interval)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health.Handle)

		r.Group(func(r chi.Router) {
			r.Use(quizLimiter.Middleware)
			r.Post("/quiz/submit", h.quiz.Submit)
			r.Post("/quiz/submit-response", h.quiz.Submit)
		})

		r.Post("/webhooks/hotmart", h.webhook.Handle)
		r.Post("/meta/test", h.metaTest.Handle)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func rabbitConn(r *queue.RabbitMQ) *amqp.Connection {
	if r == nil {
		return nil
	}
	return r.Conn
}
