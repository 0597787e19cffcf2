package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router wires the admin endpoints. The surface is meant to sit behind an
// operator-controlled network boundary; it carries no authentication itself.
func (s *Service) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.listClients)
			r.Post("/", s.createClient)
			r.Get("/{clientId}", s.getClient)
			r.Put("/{clientId}", s.updateClient)
			r.Get("/{clientId}/deposits", s.listClientDeposits)
		})

		r.Route("/deposits", func(r chi.Router) {
			r.Get("/", s.listDeposits)
			r.Post("/", s.createDeposit)
			r.Get("/{depositId}", s.getDeposit)
			r.Put("/{depositId}", s.updateDeposit)
			r.Post("/{depositId}/confirm", s.confirmDeposit)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Get("/{externalId}", s.getTransaction)
			r.Get("/{externalId}/distributions", s.listDistributions)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.getRemoteConfig)
			r.Put("/", s.saveRemoteConfig)
			r.Post("/test", s.testConnection)
		})

		r.Route("/actions", func(r chi.Router) {
			r.Post("/poll", s.triggerPoll)
			r.Post("/test-connection", s.testConnection)
			r.Post("/test-transaction", s.testTransaction)
		})
	})

	return r
}
