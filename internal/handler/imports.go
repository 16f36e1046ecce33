package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/statement"
	"github.com/mmeshcher/carlottery/internal/validation"
)

// ImportTransactions импортирует пакет строк выписки и выдаёт билеты.
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.ImportTransactions(r.Context(), model.ImportRequest{
		Metadata: req.Metadata,
		Data:     req.Data,
	})
	if err != nil {
		h.writeServiceError(w, "import transactions", err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// Preview рассчитывает число билетов по пакету без сохранения.
// Цена билета берётся из запроса, а при её отсутствии из лотереи carId.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	var (
		res *model.PreviewResult
		err error
	)
	if hasTicketPrice(req.TicketPrice) {
		price, perr := parseTicketPrice(req.TicketPrice)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, "invalid ticketPrice")
			return
		}
		res, err = h.service.Preview(req.Transactions, price)
	} else {
		res, err = h.service.PreviewForLottery(r.Context(), req.LotteryID, req.Transactions)
	}
	if err != nil {
		h.writeServiceError(w, "preview", err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// parseTicketPrice принимает цену билета как числом, так и форматированной строкой.
func parseTicketPrice(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return validation.ParseTicketPrice(s)
}

type rowErrorResponse struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type normalizeResponse struct {
	Rows   []model.ImportRow  `json:"rows"`
	Errors []rowErrorResponse `json:"errors"`
}

// NormalizeStatement преобразует ячейки выписки в строки импорта.
func (h *Handler) NormalizeStatement(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	rows, rowErrs := statement.MapRows(req.Cells, h.loc)

	resp := normalizeResponse{
		Rows:   rows,
		Errors: make([]rowErrorResponse, 0, len(rowErrs)),
	}
	if resp.Rows == nil {
		resp.Rows = []model.ImportRow{}
	}
	for _, e := range rowErrs {
		resp.Errors = append(resp.Errors, rowErrorResponse{Row: e.Row, Error: e.Err.Error()})
	}

	h.writeJSON(w, http.StatusOK, resp)
}
