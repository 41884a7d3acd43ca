package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hbashir/paniwala/internal/ledger"
)

// LedgerHandler serves the customer, product, and transaction resources.
type LedgerHandler struct {
	svc *ledger.Service
}

func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) Routes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Post("/import", h.importCustomers)
		r.Delete("/{id}", h.deleteCustomer)
		r.Put("/{id}/schedule", h.updateSchedule)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.listTransactions)
		r.Post("/{id}/void", h.voidTransaction)
	})
	r.Post("/sales", h.postSale)
	r.Post("/collections", h.postCollection)
	r.Post("/expenses", h.postExpense)
}

func (h *LedgerHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Store().Customers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponseList(customers))
}

type createCustomerRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	OpeningBalance int64  `json:"opening_balance"`
}

func (h *LedgerHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c, err := h.svc.AddCustomer(r.Context(), req.Name, req.Phone, req.Address, req.OpeningBalance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(*c))
}

type importCustomersRequest struct {
	Rows [][]string `json:"rows"`
}

type importCustomersResponse struct {
	Imported int `json:"imported"`
}

func (h *LedgerHandler) importCustomers(w http.ResponseWriter, r *http.Request) {
	var req importCustomersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.svc.ImportCustomers(r.Context(), req.Rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, importCustomersResponse{Imported: n})
}

func (h *LedgerHandler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	badDebt := r.URL.Query().Get("bad_debt") == "true"

	c, err := h.svc.Store().Customer(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.svc.DeleteCustomer(r.Context(), c, badDebt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req map[string]scheduleItemBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sched := make(map[time.Weekday]ledger.ScheduleItem, len(req))
	for name, item := range req {
		day, ok := parseWeekday(name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown weekday %q", name), http.StatusBadRequest)
			return
		}
		sched[day] = item.toScheduleItem()
	}

	if err := h.svc.UpdateSchedule(r.Context(), id, sched); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Store().Products(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponseList(products))
}

type createProductRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Keywords string `json:"keywords"`
}

func (h *LedgerHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	p, err := h.svc.AddProduct(r.Context(), req.Name, req.Price, req.Keywords)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h *LedgerHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.Store().Transactions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponseList(txs))
}

func (h *LedgerHandler) voidTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Void(r.Context(), id)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	case errors.Is(err, ledger.ErrAlreadyVoided):
		http.Error(w, "transaction already voided", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(*tx))
}

type postSaleRequest struct {
	Method     string     `json:"method"`
	ProductID  uuid.UUID  `json:"product_id"`
	Quantity   int        `json:"quantity"`
	Delivery   int64      `json:"delivery"`
	CustomerID *uuid.UUID `json:"customer_id"`
}

func (h *LedgerHandler) postSale(w http.ResponseWriter, r *http.Request) {
	var req postSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, ok := h.findProduct(r.Context(), w, req.ProductID)
	if !ok {
		return
	}

	params := ledger.SaleParams{
		Method:   ledger.PayCash,
		Product:  product,
		Quantity: req.Quantity,
		Delivery: req.Delivery,
	}
	if req.Method == string(ledger.PayCredit) {
		if req.CustomerID == nil {
			http.Error(w, "credit sale requires customer_id", http.StatusBadRequest)
			return
		}
		c, err := h.svc.Store().Customer(r.Context(), *req.CustomerID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				http.Error(w, "customer not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		params.Method = ledger.PayCredit
		params.Customer = &c
	}

	tx, err := h.svc.PostSale(r.Context(), params)
	switch {
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		http.Error(w, "sale amount must be positive", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, h.withReceipt(r.Context(), *tx))
}

// withReceipt decorates a posted transaction with the outbound message
// payload when a customer is involved.
func (h *LedgerHandler) withReceipt(ctx context.Context, tx ledger.Transaction) postedResponse {
	resp := postedResponse{transactionResponse: toTransactionResponse(tx)}
	if tx.CustomerID == nil {
		return resp
	}
	c, err := h.svc.Store().Customer(ctx, *tx.CustomerID)
	if err != nil {
		return resp
	}
	receipt := ledger.ReceiptFor(tx, c.Balance)
	resp.Receipt = &receipt
	resp.MessageLink = receipt.MessageLink(c.Phone)
	return resp
}

type postedResponse struct {
	transactionResponse
	Receipt     *ledger.Receipt `json:"receipt,omitempty"`
	MessageLink string          `json:"message_link,omitempty"`
}

type postCollectionRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Amount     int64     `json:"amount"`
}

func (h *LedgerHandler) postCollection(w http.ResponseWriter, r *http.Request) {
	var req postCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	c, err := h.svc.Store().Customer(r.Context(), req.CustomerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	tx, err := h.svc.RecordCollection(r.Context(), c, req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, h.withReceipt(r.Context(), *tx))
}

type postExpenseRequest struct {
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
}

func (h *LedgerHandler) postExpense(w http.ResponseWriter, r *http.Request) {
	var req postExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.RecordExpense(r.Context(), req.Amount, req.Category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

func (h *LedgerHandler) findProduct(ctx context.Context, w http.ResponseWriter, id uuid.UUID) (ledger.Product, bool) {
	products, err := h.svc.Store().Products(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return ledger.Product{}, false
	}
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	http.Error(w, "product not found", http.StatusNotFound)
	return ledger.Product{}, false
}

func parseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httpapi: encode response", "err", err)
	}
}
