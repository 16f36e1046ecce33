package handler

import (
	"net/http"
)

// ListTickets возвращает билеты лотереи с необязательным фильтром по телефону.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	tickets, err := h.service.ListTickets(r.Context(), id, r.URL.Query().Get("phone"))
	if err != nil {
		h.writeServiceError(w, "list tickets", err)
		return
	}

	if len(tickets) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, tickets)
}

// CreateManualTicket выдаёт билет вручную.
func (h *Handler) CreateManualTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	var req manualTicketRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	t, err := h.service.CreateManualTicket(r.Context(), id, req.Phone, req.Amount)
	if err != nil {
		h.writeServiceError(w, "create manual ticket", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, t)
}

// ListTransactions возвращает импортированные транзакции лотереи.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid lottery id")
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "list transactions", err)
		return
	}

	if len(transactions) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, transactions)
}
