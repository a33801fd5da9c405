package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainboard/chainboard/internal/store"
)

func RegisterRoutes(app *fiber.App, nc *nats.Conn, st store.Store, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check. NATS is optional, so only an established-but-broken
	// connection degrades health.
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"store": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc != nil {
			checks["nats"] = "ok"
			if !nc.IsConnected() {
				checks["nats"] = "disconnected"
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			} else if err := nc.FlushTimeout(1 * time.Second); err != nil {
				checks["nats"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")
	v1.Get("/exchanges", h.ListExchanges)
	v1.Get("/exchanges/classify", h.ClassifyExchanges)
	v1.Get("/chains", h.ListChains)
	v1.Get("/tokens/:id", h.GetToken)
	v1.Get("/tokens/:id/chart", h.GetTokenChart)
	v1.Get("/tokens/:id/assessment", h.GetAssessment)
	v1.Get("/tokens/:id/assessment/history", h.GetAssessmentHistory)
	v1.Get("/repos/:org/activity", h.GetRepoActivity)
}
