package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/services/comments"
	"github.com/guilhalves/spotlight/internal/services/ledger"
)

func baseRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewLedgerRouter registers the transactions API. Everything except
// /healthz and /metrics requires a bearer token.
func NewLedgerRouter(svc *ledger.LedgerService, issuer *auth.Issuer) http.Handler {
	h := NewLedgerHandlers(svc)
	r := baseRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(issuer))

		r.Get("/balance", h.GetBalanceHandler)
		r.Post("/transactions", h.CreateTransactionHandler)
		r.Post("/transactions/confirm/{id}", h.ConfirmTransactionHandler)
		r.Delete("/transactions/{id}", h.DeleteTransactionHandler)
	})

	return r
}

// NewCommentRouter registers the comments API.
func NewCommentRouter(svc *comments.CommentService, issuer *auth.Issuer) http.Handler {
	h := NewCommentHandlers(svc)
	r := baseRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(issuer))

		r.Post("/comments", h.CreateCommentHandler)
		r.Get("/comments/post/{postID}", h.ListCommentsHandler)
	})

	return r
}
