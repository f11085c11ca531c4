package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

func validateCompany(c *models.Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return invoice.NewValidationError("name", c.Name, "company name is required")
	}
	if c.StartNumber < 0 {
		return invoice.NewValidationError("start_number", c.StartNumber, "must not be negative")
	}
	return nil
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c.ID = ""
	c.LastInvoiceNumber = 0
	if err := validateCompany(&c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.CreateCompany(r.Context(), &c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := validateCompany(&c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.UpdateCompany(r.Context(), &c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nextNumber returns the advisory next invoice number. Nothing is reserved.
func (s *Server) nextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := s.invoices.SuggestNumber(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"next_number": n})
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c.ID = ""
	if strings.TrimSpace(c.Name) == "" {
		s.writeServiceError(w, r, invoice.NewValidationError("name", c.Name, "customer name is required"))
		return
	}
	if err := s.store.CreateCustomer(r.Context(), &c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateCustomer(r.Context(), &c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
