package httpapi

import (
	"net/http"
	"regexp"
	"time"

	"github.com/hbashir/paniwala/internal/dates"
	"github.com/hbashir/paniwala/internal/ledger"
	"github.com/hbashir/paniwala/internal/schedule"
	"github.com/hbashir/paniwala/internal/stats"
)

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DashboardHandler serves the aggregated business figures the dashboard
// renders. Aggregation runs on demand over the full transaction log.
type DashboardHandler struct {
	svc     *ledger.Service
	engine  *dates.Engine
	planner *schedule.Planner
}

func NewDashboardHandler(svc *ledger.Service, engine *dates.Engine, planner *schedule.Planner) *DashboardHandler {
	return &DashboardHandler{svc: svc, engine: engine, planner: planner}
}

type variantBody struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Revenue int64  `json:"revenue"`
}

type monthBody struct {
	Collection   int64 `json:"collection"`
	Expenses     int64 `json:"expenses"`
	CashExpenses int64 `json:"cash_expenses"`
	BadDebt      int64 `json:"bad_debt"`
	NetIncome    int64 `json:"net_income"`
}

type dashboardResponse struct {
	Date            string        `json:"date"`
	Collection      int64         `json:"collection"`
	Bottles         int           `json:"bottles"`
	Variants        []variantBody `json:"variants"`
	TopVariant      *variantBody  `json:"top_variant,omitempty"`
	Month           monthBody     `json:"month"`
	LifetimeNet     int64         `json:"lifetime_net"`
	TotalReceivable int64         `json:"total_receivable"`
	PendingTasks    int           `json:"pending_tasks"`
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dateKey := r.URL.Query().Get("date")
	if dateKey == "" {
		dateKey = h.engine.Key(time.Now())
	} else if !dateKeyRe.MatchString(dateKey) {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	store := h.svc.Store()
	txs, err := store.Transactions(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	customers, err := store.Customers(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	products, err := store.Products(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := stats.Aggregate(h.engine, txs, customers, products)
	day := report.Day(dateKey)
	month := report.Month(dateKey[:7])

	pending, err := h.planner.PendingCount(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dashboardResponse{
		Date:       dateKey,
		Collection: day.Collection,
		Bottles:    day.Bottles,
		Variants:   make([]variantBody, 0, len(day.Variants)),
		Month: monthBody{
			Collection:   month.Collection,
			Expenses:     month.Expenses,
			CashExpenses: month.CashExpenses,
			BadDebt:      month.BadDebt,
			NetIncome:    month.NetIncome(),
		},
		LifetimeNet:     report.LifetimeNet,
		TotalReceivable: report.TotalReceivable,
		PendingTasks:    pending,
	}
	for _, v := range day.Variants {
		resp.Variants = append(resp.Variants, variantBody{Name: v.Name, Count: v.Count, Revenue: v.Revenue})
	}
	if top, ok := day.TopVariant(); ok {
		resp.TopVariant = &variantBody{Name: top.Name, Count: top.Count, Revenue: top.Revenue}
	}

	writeJSON(w, http.StatusOK, resp)
}
