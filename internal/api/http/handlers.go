package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/assolib/assolib-manager/internal/dto"
	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/assolib/assolib-manager/internal/period"
	"github.com/assolib/assolib-manager/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DB().QueryRowxContext(r.Context(), "SELECT 1").Err(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlatformReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g := entity.ParseGranularity(q.Get("granularity"))

	rep, err := s.reports.PlatformReport(r.Context(), g, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		if errors.Is(err, period.ErrInvalidPeriod) {
			respondErrInvalidRequest(w, err)
			return
		}
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.ConvertPlatformReport(rep))
}

func (s *Server) handleAssociationReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "associationID"))
	if err != nil || id <= 0 {
		respondErrInvalidRequest(w, fmt.Errorf("association id must be a positive integer"))
		return
	}

	q := r.URL.Query()
	g := entity.ParseGranularity(q.Get("granularity"))

	rep, err := s.reports.AssociationReport(r.Context(), id, g, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAssociationNotFound):
			respondErrNotFound(w)
		case errors.Is(err, period.ErrInvalidPeriod):
			respondErrInvalidRequest(w, err)
		default:
			respondErrInternal(w, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, dto.ConvertAssociationReport(rep))
}

const (
	defaultTransactionsLimit = 50
	maxTransactionsLimit     = 200
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "associationID"))
	if err != nil || id <= 0 {
		respondErrInvalidRequest(w, fmt.Errorf("association id must be a positive integer"))
		return
	}

	if _, err := s.repo.Catalog().GetAssociationByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrAssociationNotFound) {
			respondErrNotFound(w)
			return
		}
		respondErrInternal(w, err)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > maxTransactionsLimit {
		limit = defaultTransactionsLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	txs, err := s.repo.Transaction().GetTransactionsByAssociation(r.Context(), id, limit, offset)
	if err != nil {
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": dto.ConvertTransactions(txs),
		"limit":        limit,
		"offset":       offset,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil || id <= 0 {
		respondErrInvalidRequest(w, fmt.Errorf("order id must be a positive integer"))
		return
	}

	full, err := s.repo.Order().GetOrderFullByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondErrNotFound(w)
			return
		}
		respondErrInternal(w, err)
		return
	}

	// the legacy items fallback needs product names resolved up front
	var names map[int]string
	if len(full.Ownerships) == 0 {
		names, err = s.repo.Catalog().GetProductNames(r.Context(), dto.FallbackProductIDs(&full.Order))
		if err != nil {
			respondErrInternal(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, dto.ConvertOrderFullToProjection(full, names))
}

// orderID parses and validates the order id path param, loading the order to
// surface 404 before any write.
func (s *Server) orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil || id <= 0 {
		respondErrInvalidRequest(w, fmt.Errorf("order id must be a positive integer"))
		return 0, false
	}
	if _, err := s.repo.Order().GetOrderFullByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondErrNotFound(w)
		} else {
			respondErrInternal(w, err)
		}
		return 0, false
	}
	return id, true
}

func (s *Server) handleSetDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		respondErrInvalidRequest(w, fmt.Errorf("status is required"))
		return
	}
	if err := s.repo.Order().SetDeliveryStatus(r.Context(), id, body.Status); err != nil {
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func (s *Server) handleSetFiscStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		respondErrInvalidRequest(w, fmt.Errorf("status is required"))
		return
	}
	if err := s.repo.Order().SetFiscStatus(r.Context(), id, body.Status); err != nil {
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func (s *Server) handleSetExported(w http.ResponseWriter, r *http.Request) {
	id, ok := s.orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Exported bool `json:"exported"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErrInvalidRequest(w, fmt.Errorf("exported flag is required"))
		return
	}
	if err := s.repo.Order().SetExported(r.Context(), id, body.Exported); err != nil {
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"exported": body.Exported})
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	sum, err := s.backfill.Run(r.Context())
	if err != nil {
		respondErrInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}
