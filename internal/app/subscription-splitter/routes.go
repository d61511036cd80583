// Package subscriptionsplitter предоставляет маршруты для основного приложения.
package subscriptionsplitter

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/billing/owed"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/member/memberadd"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/member/memberremove"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/payment/paymentregister"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/price/pricecreate"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/price/pricelist"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/subscription-splitter/internal/services/auth"
	billingservice "github.com/magabrotheeeer/subscription-splitter/internal/services/billing"
	paymentservice "github.com/magabrotheeeer/subscription-splitter/internal/services/payment"
	subservice "github.com/magabrotheeeer/subscription-splitter/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.AuthService,
	subscriptionService *subservice.SubscriptionService,
	billingService *billingservice.BillingService,
	paymentService *paymentservice.PaymentService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)

			r.Post("/subscriptions/{id}/prices", pricecreate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}/prices", pricelist.New(logger, subscriptionService).ServeHTTP)

			r.Post("/subscriptions/{id}/members", memberadd.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}/members/{username}", memberremove.New(logger, subscriptionService).ServeHTTP)

			r.Get("/subscriptions/{id}/debt", owed.New(logger, billingService).ServeHTTP)

			r.Post("/subscriptions/{id}/payments", paymentregister.New(logger, paymentService).ServeHTTP)
			r.Get("/subscriptions/{id}/payments", paymentlist.New(logger, paymentService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
