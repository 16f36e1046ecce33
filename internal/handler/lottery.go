package handler

import (
	"net/http"

	"github.com/mmeshcher/carlottery/internal/model"
)

// CreateLottery создаёт новую лотерею.
func (h *Handler) CreateLottery(w http.ResponseWriter, r *http.Request) {
	var req createLotteryRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	l, err := h.service.CreateLottery(r.Context(), model.Lottery{
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		Price:         req.Price,
		TotalTickets:  req.TotalTickets,
		Active:        active,
	})
	if err != nil {
		h.writeServiceError(w, "create lottery", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, l)
}

// ListLotteries возвращает список лотерей.
func (h *Handler) ListLotteries(w http.ResponseWriter, r *http.Request) {
	lotteries, err := h.service.ListLotteries(r.Context())
	if err != nil {
		h.writeServiceError(w, "list lotteries", err)
		return
	}

	if len(lotteries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, lotteries)
}

// GetLottery возвращает лотерею с датой последней импортированной транзакции.
func (h *Handler) GetLottery(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	details, err := h.service.GetLottery(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get lottery", err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

// SetLotteryActive включает или выключает лотерею.
func (h *Handler) SetLotteryActive(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	var req setActiveRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	if err := h.service.SetLotteryActive(r.Context(), id, *req.Active); err != nil {
		h.writeServiceError(w, "set lottery active", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteLottery удаляет лотерею вместе с её транзакциями и билетами.
func (h *Handler) DeleteLottery(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	if err := h.service.DeleteLottery(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete lottery", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
