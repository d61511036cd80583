// Package owed реализует HTTP-обработчик для получения выписки задолженности
// участника подписки.
//
// Handler извлекает ID подписки из URL, имя пользователя из контекста
// и опциональную дату расчёта из query-параметра as_of. Возвращает количество
// неоплаченных периодов, сумму долга и разбивку по периодам.
package owed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/response"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	billingservice "github.com/magabrotheeeer/subscription-splitter/internal/services/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// Handler обрабатывает запросы на получение выписки задолженности.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики расчёта задолженности.
type Service interface {
	GetStatement(ctx context.Context, subscriptionID int, username string, asOf time.Time) (*billing.Statement, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выписка задолженности участника
// @Description Возвращает количество неоплаченных периодов, сумму долга и разбивку по периодам для текущего пользователя. Параметр as_of задаёт дату расчёта, по умолчанию сегодня.
// @Tags Billing
// @Produce  json
// @Param id path int true "ID подписки"
// @Param as_of query string false "Дата расчёта в формате 2006-01-02"
// @Success 200 {object} map[string]any "Выписка задолженности"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID или дата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не участник подписки"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Некорректная конфигурация подписки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/{id}/debt [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.owed"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			log.Error("failed to parse as_of", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("as_of must be a date in format 2006-01-02"))
			return
		}
	}

	statement, err := h.service.GetStatement(r.Context(), id, username, asOf)
	switch {
	case errors.Is(err, billingservice.ErrNotMember):
		log.Error("user is not a member", slog.Int("id", id))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("not a member of the subscription"))
		return
	case errors.Is(err, repository.ErrNotFound):
		log.Error("subscription not found", slog.Int("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	case errors.Is(err, billing.ErrInvalidConfiguration):
		log.Error("invalid billing configuration", slog.Int("id", id), sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid billing configuration"))
		return
	case err != nil:
		log.Error("failed to compute statement", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not compute statement"))
		return
	}

	log.Info("success to compute statement",
		slog.Int("subscription_id", id),
		slog.String("username", username),
		slog.Int("unpaid_periods", statement.UnpaidPeriods))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"unpaid_periods": statement.UnpaidPeriods,
		"total_owed":     statement.TotalOwed.StringFixed(2),
		"status":         statement.Status(),
		"breakdown":      statement.Breakdown,
	}))
}
