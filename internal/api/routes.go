package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/securities/{code}", handler.UpdateSecurityInfo).Methods("PUT")
	api.HandleFunc("/quotes/current", handler.FetchCurrentQuotes).Methods("GET")
	api.HandleFunc("/holidays/{year}", handler.FetchHolidaySchedule).Methods("GET")

	return r
}
