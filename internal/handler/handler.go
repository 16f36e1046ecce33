// Package handler содержит HTTP-обработчики API сервиса автолотереи.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/repository"
	"github.com/mmeshcher/carlottery/internal/service"
	"github.com/mmeshcher/carlottery/internal/ticket"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateLottery(ctx context.Context, l model.Lottery) (*model.Lottery, error)
	ListLotteries(ctx context.Context) ([]model.Lottery, error)
	GetLottery(ctx context.Context, id int64) (*model.LotteryDetails, error)
	SetLotteryActive(ctx context.Context, id int64, active bool) error
	DeleteLottery(ctx context.Context, id int64) error
	ImportTransactions(ctx context.Context, req model.ImportRequest) (*model.ImportResult, error)
	Preview(rows []model.PreviewRow, ticketPrice int64) (*model.PreviewResult, error)
	PreviewForLottery(ctx context.Context, lotteryID int64, rows []model.PreviewRow) (*model.PreviewResult, error)
	CreateManualTicket(ctx context.Context, lotteryID int64, phone string, amount decimal.Decimal) (*model.Ticket, error)
	ListTickets(ctx context.Context, lotteryID int64, phone string) ([]model.Ticket, error)
	ListTransactions(ctx context.Context, lotteryID int64) ([]model.Transaction, error)
}

// Handler реализует HTTP-обработчики API сервиса автолотереи.
type Handler struct {
	service Service
	logger  *zap.Logger
	loc     *time.Location
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// loc задаёт часовой пояс, в котором записаны даты банковских выписок.
func NewHandler(s Service, logger *zap.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		service: s,
		logger:  logger,
		loc:     loc,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ticket.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidLottery),
		errors.Is(err, service.ErrInvalidPhone):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrLotteryNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTicketPrice):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrImportFailed):
		h.logger.Error(op+" error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error(op+" error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// decodeRequest читает тело запроса в v и проверяет его методом Validate.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := v.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

func lotteryIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
