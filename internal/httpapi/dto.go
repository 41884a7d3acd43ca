package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/hbashir/paniwala/internal/ledger"
	"github.com/hbashir/paniwala/internal/schedule"
)

type customerResponse struct {
	ID       uuid.UUID                   `json:"id"`
	Name     string                      `json:"name"`
	Phone    string                      `json:"phone,omitempty"`
	Address  string                      `json:"address,omitempty"`
	Balance  int64                       `json:"balance"`
	Schedule map[string]scheduleItemBody `json:"schedule,omitempty"`
}

type scheduleItemBody struct {
	Quantity int    `json:"qty"`
	Variant  string `json:"variant"`
	Delivery int64  `json:"delivery"`
}

func toCustomerResponse(c ledger.Customer) customerResponse {
	resp := customerResponse{
		ID:      c.ID,
		Name:    c.Name,
		Phone:   c.Phone,
		Address: c.Address,
		Balance: c.Balance,
	}
	if len(c.Schedule) > 0 {
		resp.Schedule = make(map[string]scheduleItemBody, len(c.Schedule))
		for day, item := range c.Schedule {
			resp.Schedule[day.String()] = scheduleItemBody{
				Quantity: item.Quantity,
				Variant:  item.Variant,
				Delivery: item.Delivery,
			}
		}
	}
	return resp
}

func toCustomerResponseList(customers []ledger.Customer) []customerResponse {
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out
}

type productResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Keywords string    `json:"keywords,omitempty"`
}

func toProductResponse(p ledger.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Price: p.Price, Keywords: p.Keywords}
}

func toProductResponseList(products []ledger.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

type transactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Amount        int64      `json:"amount"`
	Date          time.Time  `json:"date"`
	Description   string     `json:"description"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	Category      string     `json:"category,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Voided        bool       `json:"voided"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Date:          tx.Date,
		Description:   tx.Description,
		CustomerID:    tx.CustomerID,
		ProductID:     tx.ProductID,
		Quantity:      tx.Quantity,
		Category:      tx.Category,
		PaymentMethod: string(tx.PaymentMethod),
		Voided:        tx.Deleted,
	}
}

func toTransactionResponseList(txs []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

type taskResponse struct {
	CustomerID uuid.UUID        `json:"customer_id"`
	Customer   string           `json:"customer"`
	Address    string           `json:"address,omitempty"`
	Item       scheduleItemBody `json:"item"`
	Done       bool             `json:"done"`
}

func toTaskResponseList(tasks []schedule.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse{
			CustomerID: t.Customer.ID,
			Customer:   t.Customer.Name,
			Address:    t.Customer.Address,
			Item: scheduleItemBody{
				Quantity: t.Item.Quantity,
				Variant:  t.Item.Variant,
				Delivery: t.Item.Delivery,
			},
			Done: t.Done,
		})
	}
	return out
}

func (b scheduleItemBody) toScheduleItem() ledger.ScheduleItem {
	return ledger.ScheduleItem{Quantity: b.Quantity, Variant: b.Variant, Delivery: b.Delivery}
}
