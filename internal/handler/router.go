package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/carlottery/internal/metrics"
	custommiddleware "github.com/mmeshcher/carlottery/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса автолотереи.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/lotteries", func(r chi.Router) {
			r.Post("/", h.CreateLottery)
			r.Get("/", h.ListLotteries)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLottery)
				r.Delete("/", h.DeleteLottery)
				r.Patch("/active", h.SetLotteryActive)

				r.Get("/tickets", h.ListTickets)
				r.Post("/tickets", h.CreateManualTicket)
				r.Get("/transactions", h.ListTransactions)
			})
		})

		r.Post("/imports", h.ImportTransactions)
		r.Post("/imports/preview", h.Preview)
		r.Post("/statements/normalize", h.NormalizeStatement)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
