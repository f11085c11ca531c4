package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/barcode"
	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/internal/reference"
	"github.com/LeeviJ/triolasku-sub000/internal/vat"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

type vatRequest struct {
	Net   *amount.Flex `json:"net"`
	Gross *amount.Flex `json:"gross"`
	Rate  amount.Flex  `json:"rate"`
}

type vatResponse struct {
	Net   decimal.Decimal `json:"net"`
	Vat   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
	Rate  decimal.Decimal `json:"rate"`
}

// calcVat converts net to gross, or gross to net when only gross is given.
func (s *Server) calcVat(w http.ResponseWriter, r *http.Request) {
	var req vatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rate := req.Rate.Decimal
	var net decimal.Decimal
	switch {
	case req.Net != nil:
		net = amount.Round2(req.Net.Decimal)
	case req.Gross != nil:
		net = vat.NetFromGross(req.Gross.Decimal, rate)
	}

	resp := vatResponse{Net: net, Vat: vat.Amount(net, rate), Gross: vat.GrossFromNet(net, rate), Rate: rate}
	if req.Net == nil && req.Gross != nil {
		resp.Gross = amount.Round2(req.Gross.Decimal)
	}
	writeJSON(w, http.StatusOK, resp)
}

type totalsRequest struct {
	Rows         []models.InvoiceRow `json:"rows"`
	IsCreditNote bool                `json:"is_credit_note"`
}

type totalsResponse struct {
	invoice.Totals
	Lines []invoice.VatSubtotal `json:"vat_lines"`
}

func (s *Server) calcTotals(w http.ResponseWriter, r *http.Request) {
	var req totalsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	t := invoice.ComputeInvoiceTotals(&models.Invoice{Rows: req.Rows, IsCreditNote: req.IsCreditNote})
	writeJSON(w, http.StatusOK, totalsResponse{Totals: t, Lines: t.Lines()})
}

type referenceResponse struct {
	Reference string `json:"reference"`
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
}

// calcReference builds the reference for ?invoice_number= or validates
// ?ref=.
func (s *Server) calcReference(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("ref")
	if ref == "" {
		ref = reference.FromInput(q.Get("invoice_number"))
	}
	writeJSON(w, http.StatusOK, referenceResponse{
		Reference: ref,
		Formatted: reference.Format(ref),
		Valid:     reference.Valid(ref),
	})
}

type barcodeRequest struct {
	IBAN      string      `json:"iban"`
	Amount    amount.Flex `json:"amount"`
	Reference string      `json:"reference"`
	DueDate   string      `json:"due_date"`
}

func (s *Server) calcBarcode(w http.ResponseWriter, r *http.Request) {
	var req barcodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"barcode": barcode.Virtual(req.IBAN, req.Amount.Decimal, req.Reference, req.DueDate),
	})
}

func (s *Server) parseBarcode(w http.ResponseWriter, r *http.Request) {
	fields, err := barcode.Parse(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fields)
}
