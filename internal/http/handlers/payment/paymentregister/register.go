// Package paymentregister реализует HTTP-обработчик регистрации оплаты
// расчётных периодов участником подписки.
//
// Handler принимает JSON с суммой, количеством оплаченных периодов и датой
// платежа, валидирует данные и делегирует бизнес-логике запись в журнал
// с продвижением даты последней оплаты.
package paymentregister

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/response"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	paymentservice "github.com/magabrotheeeer/subscription-splitter/internal/services/payment"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// Handler обрабатывает запросы на регистрацию платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации платежа.
type Service interface {
	Register(ctx context.Context, subscriptionID int, username string, req models.DummyPayment) (int, time.Time, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать оплату
// @Description Записывает платёж в журнал и продвигает дату последней оплаты участника на оплаченное число периодов.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписки"
// @Param request body models.DummyPayment true "Сумма, число периодов и дата платежа"
// @Success 200 {object} map[string]any "ID платежа и новая дата последней оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не участник подписки"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/{id}/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.register"

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

	var req models.DummyPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	paymentID, newLast, err := h.service.Register(r.Context(), id, username, req)
	switch {
	case errors.Is(err, paymentservice.ErrNotMember):
		log.Error("user is not a member", slog.Int("id", id))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("not a member of the subscription"))
		return
	case errors.Is(err, repository.ErrNotFound):
		log.Error("subscription not found", slog.Int("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	case err != nil:
		log.Error("failed to register payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register payment"))
		return
	}

	log.Info("success to register payment",
		slog.Int("subscription_id", id), slog.Int("payment_id", paymentID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_id":        paymentID,
		"last_payment_date": newLast.Format("2006-01-02"),
	}))
}
