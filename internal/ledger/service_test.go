package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbashir/paniwala/internal/ledger"
)

func seedService(t *testing.T) (*ledger.Service, *ledger.MemStore, ledger.Customer, ledger.Product) {
	t.Helper()

	store := ledger.NewMemStore()
	svc := ledger.NewService(store)
	ctx := context.Background()

	c, err := svc.AddCustomer(ctx, "Akbar Ali", "0300-1234567", "C204 Block 2", 0)
	require.NoError(t, err)

	p, err := svc.AddProduct(ctx, "19 Litre Bottle", 100, "19")
	require.NoError(t, err)

	return svc, store, *c, *p
}

func TestPostSale_Cash(t *testing.T) {
	svc, store, _, product := seedService(t)
	ctx := context.Background()

	tx, err := svc.PostSale(ctx, ledger.SaleParams{
		Method:   ledger.PayCash,
		Product:  product,
		Quantity: 5,
		Delivery: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(520), tx.Amount)
	assert.Equal(t, "Cash Sale: 5x 19 Litre Bottle (+ Rs.20 Del)", tx.Description)
	assert.Equal(t, ledger.PayCash, tx.PaymentMethod)
	assert.Nil(t, tx.CustomerID)

	txs, err := store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestPostSale_CreditIncrementsBalance(t *testing.T) {
	svc, store, customer, product := seedService(t)
	ctx := context.Background()

	tx, err := svc.PostSale(ctx, ledger.SaleParams{
		Method:   ledger.PayCredit,
		Product:  product,
		Quantity: 3,
		Customer: &customer,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300), tx.Amount)
	assert.Equal(t, "Credit Sale (Akbar Ali): 3x 19 Litre Bottle", tx.Description)
	require.NotNil(t, tx.CustomerID)
	assert.Equal(t, customer.ID, *tx.CustomerID)

	got, err := store.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Balance)
}

func TestPostSale_CustomerNamePrefixedOnce(t *testing.T) {
	svc, _, _, _ := seedService(t)
	ctx := context.Background()

	// A product that already embeds the customer's name must not get the
	// "Credit Sale (name):" prefix a second time.
	c, err := svc.AddCustomer(ctx, "Bottle", "", "C1", 0)
	require.NoError(t, err)
	p, err := svc.AddProduct(ctx, "19 Litre Bottle", 100, "19")
	require.NoError(t, err)

	tx, err := svc.PostSale(ctx, ledger.SaleParams{
		Method:   ledger.PayCredit,
		Product:  *p,
		Quantity: 1,
		Customer: c,
	})
	require.NoError(t, err)
	assert.Equal(t, "1x 19 Litre Bottle", tx.Description)
}

func TestPostSale_RejectsNonPositiveAmount(t *testing.T) {
	svc, store, _, _ := seedService(t)
	ctx := context.Background()

	free, err := svc.AddProduct(ctx, "Sample", 0, "")
	require.NoError(t, err)

	_, err = svc.PostSale(ctx, ledger.SaleParams{
		Method:   ledger.PayCash,
		Product:  *free,
		Quantity: 2,
	})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)

	txs, err := store.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPostSale_NotIdempotent(t *testing.T) {
	svc, store, _, product := seedService(t)
	ctx := context.Background()

	// Voice commands are not idempotent business events: identical commands
	// produce distinct ledger entries.
	params := ledger.SaleParams{Method: ledger.PayCash, Product: product, Quantity: 1}
	tx1, err := svc.PostSale(ctx, params)
	require.NoError(t, err)
	tx2, err := svc.PostSale(ctx, params)
	require.NoError(t, err)

	assert.NotEqual(t, tx1.ID, tx2.ID)
	txs, err := store.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestRecordCollection(t *testing.T) {
	svc, store, customer, product := seedService(t)
	ctx := context.Background()

	_, err := svc.PostSale(ctx, ledger.SaleParams{
		Method: ledger.PayCredit, Product: product, Quantity: 5, Customer: &customer,
	})
	require.NoError(t, err)

	tx, err := svc.RecordCollection(ctx, customer, 200)
	require.NoError(t, err)
	assert.Equal(t, "Payment from Akbar Ali", tx.Description)

	got, err := store.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Balance)
}

func TestVoid_ReversesBalanceExactlyOnce(t *testing.T) {
	svc, store, customer, product := seedService(t)
	ctx := context.Background()

	sale, err := svc.PostSale(ctx, ledger.SaleParams{
		Method: ledger.PayCredit, Product: product, Quantity: 3, Customer: &customer,
	})
	require.NoError(t, err)

	voided, err := svc.Void(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, voided.Deleted)
	assert.Contains(t, voided.Description, "[VOID]")

	got, err := store.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)

	// The second void must not re-adjust the balance.
	_, err = svc.Void(ctx, sale.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyVoided)

	got, err = store.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)
}

func TestVoid_CollectionRestoresBalance(t *testing.T) {
	svc, store, customer, product := seedService(t)
	ctx := context.Background()

	_, err := svc.PostSale(ctx, ledger.SaleParams{
		Method: ledger.PayCredit, Product: product, Quantity: 5, Customer: &customer,
	})
	require.NoError(t, err)

	coll, err := svc.RecordCollection(ctx, customer, 500)
	require.NoError(t, err)

	_, err = svc.Void(ctx, coll.ID)
	require.NoError(t, err)

	got, err := store.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Balance)
}

func TestDeleteCustomer_BadDebtWriteOff(t *testing.T) {
	svc, store, customer, product := seedService(t)
	ctx := context.Background()

	_, err := svc.PostSale(ctx, ledger.SaleParams{
		Method: ledger.PayCredit, Product: product, Quantity: 4, Customer: &customer,
	})
	require.NoError(t, err)

	withBalance, err := store.Customer(ctx, customer.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCustomer(ctx, withBalance, true))

	_, err = store.Customer(ctx, customer.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	txs, err := store.Transactions(ctx)
	require.NoError(t, err)
	var badDebt *ledger.Transaction
	for i := range txs {
		if txs[i].Category == ledger.CategoryBadDebt {
			badDebt = &txs[i]
		}
	}
	require.NotNil(t, badDebt, "expected a bad debt expense")
	assert.Equal(t, int64(400), badDebt.Amount)
}

func TestImportCustomers(t *testing.T) {
	svc, store, _, _ := seedService(t)
	ctx := context.Background()

	rows := [][]string{
		{"Bilal", "0301-1111111", "C10", "150"},
		{"", "skipped", "no name"},
		{`"Quoted Name"`, "0302-2222222", "C11"},
	}
	added, err := svc.ImportCustomers(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	customers, err := store.Customers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 3) // seed customer + 2 imported
}
