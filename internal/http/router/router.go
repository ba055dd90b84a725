package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/veyucu/fastits/internal/http/handler"
	"github.com/veyucu/fastits/internal/http/middleware"
	"github.com/veyucu/fastits/internal/http/response"
)

// Dependencies carries everything the router mounts. Kept as one struct
// so wiring stays a single provider.
type Dependencies struct {
	Transfers       *handler.TransferHandler
	Receipts        *handler.ReceiptHandler
	Logger          *slog.Logger
	APIRateLimit    *middleware.RateLimiter
	IngestRateLimit *middleware.RateLimiter
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if dep.Logger != nil {
		r.Use(requestLogger(dep.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		response.JSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		if dep.APIRateLimit != nil {
			r.Use(dep.APIRateLimit.Middleware())
		}

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", dep.Transfers.ListTransfers)
			r.Get("/{transferID}", dep.Transfers.GetTransfer)
			r.Post("/{transferID}/notifications", dep.Transfers.Notify)
			// Ingest carries whole manifests, so it gets its own
			// tighter limit.
			r.Group(func(r chi.Router) {
				if dep.IngestRateLimit != nil {
					r.Use(dep.IngestRateLimit.Middleware())
				}
				r.Post("/", dep.Transfers.Ingest)
			})
		})

		r.Route("/containers/{label}", func(r chi.Router) {
			r.Get("/", dep.Transfers.GetContainer)
			r.Get("/tree", dep.Transfers.GetContainerTree)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", dep.Receipts.CreateDocument)
			r.Route("/{documentNumber}", func(r chi.Router) {
				r.Get("/", dep.Receipts.GetDocument)
				r.Route("/lines/{lineID}", func(r chi.Router) {
					r.Get("/scans", dep.Receipts.ListScans)
					r.Post("/scans", dep.Receipts.RecordScans)
					r.Delete("/scans", dep.Receipts.DeleteScans)
					r.Post("/container", dep.Receipts.ReceiveContainer)
				})
			})
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
