// Package server exposes the invoicing engine over a JSON HTTP API.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/store"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// Options configure the API.
type Options struct {
	// User and Password enable HTTP Basic Authentication when either is
	// set. Password may be a bcrypt hash.
	User     string
	Password string
}

// Server holds the handlers' dependencies.
type Server struct {
	store    store.Store
	invoices *invoice.Service
	opts     Options
	log      zerolog.Logger
}

// New creates the API server.
func New(s store.Store, invoices *invoice.Service, opts Options) *Server {
	return &Server{
		store:    s,
		invoices: invoices,
		opts:     opts,
		log:      logger.WithComponent("http"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.basicAuth)

		// Calculators
		r.Post("/calc/vat", s.calcVat)
		r.Post("/calc/totals", s.calcTotals)
		r.Get("/calc/reference", s.calcReference)
		r.Post("/calc/barcode", s.calcBarcode)
		r.Get("/calc/barcode/{code}", s.parseBarcode)

		// Companies
		r.Get("/companies", s.listCompanies)
		r.Post("/companies", s.createCompany)
		r.Get("/companies/{id}", s.getCompany)
		r.Put("/companies/{id}", s.updateCompany)
		r.Delete("/companies/{id}", s.deleteCompany)
		r.Get("/companies/{id}/next-number", s.nextNumber)
		r.Get("/companies/{id}/customers", s.listCustomers)
		r.Get("/companies/{id}/invoices", s.listInvoices)
		r.Get("/companies/{id}/invoices/draft", s.prepareInvoice)

		// Customers
		r.Post("/customers", s.createCustomer)
		r.Get("/customers/{id}", s.getCustomer)
		r.Put("/customers/{id}", s.updateCustomer)
		r.Delete("/customers/{id}", s.deleteCustomer)

		// Invoices
		r.Post("/invoices", s.createInvoice)
		r.Get("/invoices/{id}", s.getInvoice)
		r.Put("/invoices/{id}", s.updateInvoice)
		r.Delete("/invoices/{id}", s.deleteInvoice)
		r.Put("/invoices/{id}/status", s.setInvoiceStatus)
		r.Get("/invoices/{id}/payment", s.invoicePayment)
	})

	return r
}

// requestLogger logs every request with its chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Info().
			Str("component", "http").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// basicAuth enforces HTTP Basic Authentication when credentials are set.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	if s.opts.User == "" && s.opts.Password == "" {
		s.log.Warn().Msg("HTTP_USER and HTTP_PASSWORD not set, API is unauthenticated")
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !s.validCredentials(u, p) {
			w.Header().Set("WWW-Authenticate", `Basic realm="lasku"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validCredentials(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.User)) == 1
	if strings.HasPrefix(s.opts.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.opts.Password), []byte(password)) == nil && userOK
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.Password)) == 1 && userOK
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *invoice.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, invoice.ErrInvalidStatus),
		errors.Is(err, invoice.ErrMissingCompany),
		errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
