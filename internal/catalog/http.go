package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCatalog/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	msgNotFound        = "Not found"
	msgProductNotFound = "Product not found"
)

type Server struct {
	Repo *Repository
	Log  *zap.Logger

	// WriteLimiter, when set, throttles mutating requests per client IP.
	WriteLimiter *kit.IPRateLimiter
}

type ack struct {
	Success bool `json:"success"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Repo.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			kit.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		api.Get("/products", s.list)
		api.Get("/products/{id}", s.get)

		api.Group(func(wr chi.Router) {
			if s.WriteLimiter != nil {
				wr.Use(s.WriteLimiter.Middleware)
			}

			wr.Post("/products", s.create)
			wr.Put("/products/{id}", s.update)
			wr.Delete("/products/{id}", s.delete)

			wr.Post("/products/{id}/reviews", s.addReview)
			wr.Put("/products/{id}/reviews/{rid}", s.updateReview)
			wr.Delete("/products/{id}/reviews/{rid}", s.deleteReview)
		})
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Repo.List(r.Context())
	if err != nil {
		s.writeRepoError(w, r, err, msgNotFound)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Repo.Get(r.Context(), id)
	if err != nil {
		s.writeRepoError(w, r, err, msgNotFound, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req NewProduct
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeRepoError(w, r, errors.Join(ErrBadRequest, err), msgNotFound)
		return
	}

	p, err := s.Repo.Create(r.Context(), req)
	if err != nil {
		s.writeRepoError(w, r, err, msgNotFound)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ProductPatch
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeRepoError(w, r, errors.Join(ErrBadRequest, err), msgNotFound)
		return
	}

	p, err := s.Repo.Update(r.Context(), id, req)
	if err != nil {
		s.writeRepoError(w, r, err, msgNotFound, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Repo.Delete(r.Context(), id); err != nil {
		s.writeRepoError(w, r, err, msgNotFound, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, ack{Success: true})
}

func (s *Server) addReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req NewReview
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeRepoError(w, r, errors.Join(ErrBadRequest, err), msgProductNotFound)
		return
	}

	rev, err := s.Repo.AddReview(r.Context(), id, req)
	if err != nil {
		s.writeRepoError(w, r, err, msgProductNotFound, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusCreated, rev)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	id, rid := chi.URLParam(r, "id"), chi.URLParam(r, "rid")

	var req ReviewPatch
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeRepoError(w, r, errors.Join(ErrBadRequest, err), msgProductNotFound)
		return
	}

	rev, err := s.Repo.UpdateReview(r.Context(), id, rid, req)
	if err != nil {
		s.writeRepoError(w, r, err, msgProductNotFound, zap.String("id", id), zap.String("review_id", rid))
		return
	}
	kit.WriteJSON(w, http.StatusOK, rev)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, rid := chi.URLParam(r, "id"), chi.URLParam(r, "rid")

	if err := s.Repo.DeleteReview(r.Context(), id, rid); err != nil {
		s.writeRepoError(w, r, err, msgProductNotFound, zap.String("id", id), zap.String("review_id", rid))
		return
	}
	kit.WriteJSON(w, http.StatusOK, ack{Success: true})
}

// writeRepoError maps the error taxonomy onto HTTP. notFound is the message
// used when the product itself is missing.
func (s *Server) writeRepoError(w http.ResponseWriter, r *http.Request, err error, notFound string, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrBadRequest):
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
	case errors.Is(err, ErrReviewNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Review not found", nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, notFound, nil)
	default:
		s.logger().Error("catalog operation failed", append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
