package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/db"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/spin"
)

// SpinResponse is the body of GET /api/spin.
type SpinResponse struct {
	Products   catalog.SpinResult `json:"products"`
	Categories []catalog.Category `json:"categories"`
	Locked     string             `json:"locked,omitempty"`
	Ignored    []string           `json:"ignored_locks,omitempty"`
}

// CategoryResponse is one entry of GET /api/categories.
type CategoryResponse struct {
	catalog.Category
	Products int `json:"products"`
}

// ProductsResponse is the body of GET /api/categories/{name}/products.
type ProductsResponse struct {
	Category string             `json:"category"`
	Products []*catalog.Product `json:"products"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string           `json:"status"`
	Store  *db.HealthStatus `json:"store"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	locks, ignored := spin.ParseLocksReport(r.URL.Query().Get("locked"))

	categories, result, err := s.selector.SpinAll(r.Context(), locks)
	if err != nil {
		s.storeError(w, r, "spin", err)
		return
	}

	resp := SpinResponse{
		Products:   result,
		Categories: categories,
		Locked:     spin.FormatLocks(locks, categories),
	}
	for _, ie := range ignored {
		resp.Ignored = append(resp.Ignored, ie.Item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.reader.ListCategories(r.Context())
	if err != nil {
		s.storeError(w, r, "list categories", err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		pool, err := s.reader.ListByCategory(r.Context(), c.Name)
		if err != nil {
			s.storeError(w, r, "list category products", err)
			return
		}
		out = append(out, CategoryResponse{Category: c, Products: len(pool)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	categories, err := s.reader.ListCategories(r.Context())
	if err != nil {
		s.storeError(w, r, "list categories", err)
		return
	}
	if !hasCategory(categories, name) {
		writeError(w, http.StatusNotFound, "unknown category "+strconv.Quote(name))
		return
	}

	pool, err := s.reader.ListByCategory(r.Context(), name)
	if err != nil {
		s.storeError(w, r, "list category products", err)
		return
	}
	if pool == nil {
		pool = []*catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ProductsResponse{Category: name, Products: pool})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}

	p, err := s.reader.GetByID(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := db.Check(r.Context(), s.pinger)
	resp := HealthResponse{Status: "ok", Store: status}
	code := http.StatusOK
	if !status.Healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// storeError maps a store failure onto a status code and logs anything that
// is not a plain miss.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case dserrors.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, spin.ErrNoCategories):
		writeError(w, http.StatusServiceUnavailable, "catalog has no categories")
	case dserrors.IsUnavailable(err):
		s.logger.WithContext(r.Context()).Error("Store unavailable", logging.F("op", op), logging.Err(err))
		writeError(w, http.StatusServiceUnavailable, "catalog store unavailable")
	default:
		s.logger.WithContext(r.Context()).Error("Request failed", logging.F("op", op), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func hasCategory(categories []catalog.Category, name string) bool {
	for _, c := range categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
