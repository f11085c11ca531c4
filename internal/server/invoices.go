package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

type invoiceResponse struct {
	Invoice  *models.Invoice      `json:"invoice"`
	Payment  *invoice.PaymentInfo `json:"payment,omitempty"`
	Warnings []string             `json:"warnings"`
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	invoices, err := s.invoices.List(r.Context(), companyID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if st := r.URL.Query().Get("status"); st != "" {
		status, err := models.ParseStatus(st)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := []models.Invoice{}
		for _, inv := range invoices {
			if inv.Status == status {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) prepareInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Prepare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) saveInvoice(w http.ResponseWriter, r *http.Request, inv *models.Invoice, status int) {
	check, err := s.invoices.Save(r.Context(), inv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pay, err := s.invoices.Payment(r.Context(), inv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, invoiceResponse{Invoice: inv, Payment: pay, Warnings: check.Warnings})
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	inv.ID = ""
	inv.Snapshot = nil
	s.saveInvoice(w, r, &inv, http.StatusCreated)
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.invoices.Get(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var inv models.Invoice
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	inv.ID = id
	s.saveInvoice(w, r, &inv, http.StatusOK)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.invoices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.invoices.SetStatus(r.Context(), id, status); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	inv, err := s.invoices.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) invoicePayment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pay, err := s.invoices.Payment(r.Context(), inv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}
