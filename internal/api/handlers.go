package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/cache"
	"github.com/twmarket/stock-pipeline/internal/database"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db     *database.DB
	quotes *cache.QuoteCache
	log    *logrus.Logger
}

// NewHandler creates a new Handler. quotes may be nil; current-quote reads
// then always go to the store.
func NewHandler(db *database.DB, quotes *cache.QuoteCache, log *logrus.Logger) *Handler {
	return &Handler{
		db:     db,
		quotes: quotes,
		log:    log,
	}
}

// UpdateSecurityInfo handles PUT /api/v1/securities/{code}. Corrections go
// through the same overwrite merge rule as feed data.
func (h *Handler) UpdateSecurityInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	code := vars["code"]

	var correction models.SecurityCorrection
	if err := json.NewDecoder(r.Body).Decode(&correction); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	correction.Code = code

	if err := h.db.ApplySecurityCorrection(&correction); err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	security, err := h.db.GetSecurity(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, security)
}

// FetchCurrentQuotes handles GET /api/v1/quotes/current?codes=2330,2317.
// Reads prefer the cache projection and fall back to the store for codes
// the cache misses.
func (h *Handler) FetchCurrentQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("codes")
	if raw == "" {
		http.Error(w, "codes query parameter is required", http.StatusBadRequest)
		return
	}
	codes := strings.Split(raw, ",")

	cached := map[string]*models.CurrentQuote{}
	if h.quotes != nil {
		var err error
		cached, err = h.quotes.GetCurrentQuotes(r.Context(), codes)
		if err != nil {
			h.log.WithError(err).Warn("quote cache read failed, falling back to store")
			cached = map[string]*models.CurrentQuote{}
		}
	}

	quotes := make([]*models.CurrentQuote, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if q, ok := cached[code]; ok {
			quotes = append(quotes, q)
			continue
		}
		dq, err := h.db.GetLatestQuote(code, time.Now(), 30)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if dq == nil {
			continue
		}
		quotes = append(quotes, &models.CurrentQuote{
			Code:        dq.SecurityCode,
			Date:        dq.Date,
			Price:       dq.Close,
			Change:      dq.Change,
			ChangeRange: dq.ChangeRange,
		})
	}

	respondJSON(w, http.StatusOK, quotes)
}

// FetchHolidaySchedule handles GET /api/v1/holidays/{year}
func (h *Handler) FetchHolidaySchedule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}

	holidays, err := h.db.GetHolidaysByYear(year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, holidays)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
