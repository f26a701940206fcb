package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformhealth "github.com/juulhao/payhook/platform/health/http"
	platformobservability "github.com/juulhao/payhook/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер payhook.
// checks - проверки зависимостей для /health (postgres, redis); без них /health всегда 200.
func NewRouter(handler *Handler, logger *zap.Logger, checks ...platformhealth.Check) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Observability: trace context + span на каждый запрос, logger с trace_id в контексте
	router.Use(platformobservability.HTTPMiddleware("payhook", logger))

	// Webhook провайдера: свой recover, ответ всегда 200
	router.Post("/webhook/mercadopago", handler.Webhook)
	router.Post("/checkout-pro/webhook", handler.Webhook)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/payment/{id}", handler.GetPayment)
		r.Get("/payment/external/{ref}", handler.SearchPayments)
		r.Put("/payment/external/{ref}", handler.RefreshPayment)
		r.Get("/mercadopago/external-ref/{ref}", handler.SearchPayments)

		r.Route("/orders/{ref}", func(r chi.Router) {
			r.Get("/payment", handler.GetOrderPayment)
			r.Get("/events", handler.ListOrderEvents)
		})
	})

	router.Get("/health", platformhealth.Handler(2*time.Second, checks...))

	return router
}
