package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errNotImplemented = errors.New("not implemented in fake")
	errDuplicate      = errors.New("duplicate entry")
	errChainBroken    = errors.New("ownership chain broken")
)

type fakeOrders struct {
	orders  []entity.Order
	bundles map[int][]entity.OrderBundle
}

func (f *fakeOrders) GetOrderFullByID(ctx context.Context, id int) (*entity.OrderFull, error) {
	return nil, errNotImplemented
}

func (f *fakeOrders) GetSucceededOrders(ctx context.Context) ([]entity.Order, error) {
	return f.orders, nil
}

func (f *fakeOrders) GetOrderBundles(ctx context.Context, orderID int) ([]entity.OrderBundle, error) {
	return f.bundles[orderID], nil
}

func (f *fakeOrders) SetDeliveryStatus(ctx context.Context, orderID int, status string) error {
	return nil
}
func (f *fakeOrders) SetFiscStatus(ctx context.Context, orderID int, status string) error {
	return nil
}
func (f *fakeOrders) SetExported(ctx context.Context, orderID int, exported bool) error {
	return nil
}

type fakeTransactions struct {
	existing   map[int]bool
	inserted   []entity.TransactionInsert
	duplicates map[int]bool // order ids whose insert fails with a unique violation
}

func (f *fakeTransactions) HasTransactionForOrder(ctx context.Context, orderID int) (bool, error) {
	return f.existing[orderID], nil
}

func (f *fakeTransactions) InsertTransaction(ctx context.Context, t *entity.TransactionInsert) (int, error) {
	if f.duplicates[t.OrderID] {
		return 0, errDuplicate
	}
	f.inserted = append(f.inserted, *t)
	f.existing[t.OrderID] = true
	return len(f.inserted), nil
}

func (f *fakeTransactions) GetTransactionsByAssociation(ctx context.Context, associationID, limit, offset int) ([]entity.Transaction, error) {
	return nil, errNotImplemented
}

type fakeCatalog struct {
	productAssociation map[int]int
}

func (f *fakeCatalog) GetAssociationByID(ctx context.Context, id int) (*entity.Association, error) {
	return nil, errNotImplemented
}

func (f *fakeCatalog) GetAssociationIDByProduct(ctx context.Context, productID int) (int, error) {
	id, ok := f.productAssociation[productID]
	if !ok {
		return 0, errChainBroken
	}
	return id, nil
}

func (f *fakeCatalog) GetProductNames(ctx context.Context, ids []int) (map[int]string, error) {
	return nil, errNotImplemented
}

type fakeRepo struct {
	orders  *fakeOrders
	txs     *fakeTransactions
	catalog *fakeCatalog

	txCalls   int
	txRetries int // extra closure runs per Tx, simulating serialization retries
}

func (f *fakeRepo) Order() dependency.Order             { return f.orders }
func (f *fakeRepo) Transaction() dependency.Transaction { return f.txs }
func (f *fakeRepo) Catalog() dependency.Catalog         { return f.catalog }
func (f *fakeRepo) Metrics() dependency.Metrics         { return nil }

// Tx runs the closure like the store does: every attempt before the last is
// rolled back, only the final attempt's writes stick.
func (f *fakeRepo) Tx(ctx context.Context, fn func(context.Context, dependency.Repository) error) error {
	f.txCalls++
	var err error
	for attempt := 0; attempt <= f.txRetries; attempt++ {
		existingSnap := make(map[int]bool, len(f.txs.existing))
		for k, v := range f.txs.existing {
			existingSnap[k] = v
		}
		insertedSnap := append([]entity.TransactionInsert(nil), f.txs.inserted...)

		err = fn(ctx, f)

		if attempt < f.txRetries {
			f.txs.existing = existingSnap
			f.txs.inserted = insertedSnap
		}
	}
	return err
}
func (f *fakeRepo) TxBegin(ctx context.Context) (dependency.Repository, error) { return f, nil }
func (f *fakeRepo) TxCommit(ctx context.Context) error                         { return nil }
func (f *fakeRepo) TxRollback(ctx context.Context) error                       { return nil }
func (f *fakeRepo) Now() time.Time                                             { return time.Now() }
func (f *fakeRepo) InTx() bool                                                 { return false }
func (f *fakeRepo) Close()                                                     {}
func (f *fakeRepo) IsErrUniqueViolation(err error) bool                        { return errors.Is(err, errDuplicate) }
func (f *fakeRepo) IsErrorRepeat(err error) bool                               { return false }
func (f *fakeRepo) DB() dependency.DB                                          { return nil }

func newFakeRepo(orders []entity.Order) *fakeRepo {
	return &fakeRepo{
		orders: &fakeOrders{orders: orders, bundles: map[int][]entity.OrderBundle{}},
		txs:    &fakeTransactions{existing: map[int]bool{}, duplicates: map[int]bool{}},
		catalog: &fakeCatalog{productAssociation: map[int]int{
			10: 101,
			11: 101,
			20: 202,
		}},
	}
}

func succeededOrder(id int, price, items string) entity.Order {
	return entity.Order{
		ID:       id,
		Price:    price,
		ItemsRaw: []byte(items),
		Status:   entity.OrderSucceeded,
	}
}

func TestRunMigratesEligibleOrders(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "100.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
		succeededOrder(2, "100.00", `[{"productId":20,"quantity":2,"productType":"magnet"}]`),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Considered)
	assert.Equal(t, 2, sum.Migrated)
	assert.Equal(t, 1, sum.Digital)
	assert.Equal(t, 1, sum.Physical)
	assert.Empty(t, sum.Skipped)

	require.Len(t, repo.txs.inserted, 2)

	digital := repo.txs.inserted[0]
	assert.Equal(t, 1, digital.OrderID)
	assert.Equal(t, 101, digital.AssociationID)
	assert.True(t, decimal.RequireFromString("20").Equal(digital.Fees))
	assert.True(t, decimal.RequireFromString("80").Equal(digital.NetAmount))

	physical := repo.txs.inserted[1]
	assert.Equal(t, 202, physical.AssociationID)
	assert.True(t, decimal.RequireFromString("35").Equal(physical.Fees))
	assert.True(t, decimal.RequireFromString("65").Equal(physical.NetAmount))
}

func TestRunIsIdempotent(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "50.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
	})
	svc := New(repo)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Migrated)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migrated)
	assert.Equal(t, 1, second.AlreadyLedgered)
	assert.Len(t, repo.txs.inserted, 1)
}

func TestRunSkipsMissingAssociation(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		// unknown product
		succeededOrder(1, "10.00", `[{"productId":999,"quantity":1,"productType":"digital"}]`),
		// non-integer product id only
		succeededOrder(2, "10.00", `[{"productId":"promo-code","quantity":1}]`),
		// no items at all
		succeededOrder(3, "10.00", ``),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Migrated)
	assert.Equal(t, 3, sum.Skipped[SkipMissingAssociation])
	assert.Empty(t, repo.txs.inserted)
}

func TestRunSkipsInvalidPrice(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "not a number", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
		succeededOrder(2, "-5.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Migrated)
	assert.Equal(t, 2, sum.Skipped[SkipInvalidPrice])
}

func TestRunFallsBackToBundles(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "junk", `[{"productId":10,"quantity":1}]`),
	})
	repo.orders.bundles[1] = []entity.OrderBundle{
		{ID: 1, OrderID: 1, Amount: decimal.RequireFromString("30.00")},
		{ID: 2, OrderID: 1, Amount: decimal.RequireFromString("70.00"), IsDigital: true},
	}

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Migrated)
	assert.Equal(t, 1, sum.Digital, "a single digital bundle marks the order digital")

	require.Len(t, repo.txs.inserted, 1)
	got := repo.txs.inserted[0]
	assert.True(t, decimal.RequireFromString("100.00").Equal(got.Amount))
	assert.True(t, decimal.RequireFromString("20").Equal(got.Fees))
}

func TestRunUntypedOrderChargedPhysical(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "40.00", `[{"productId":10,"quantity":1}]`),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Migrated)
	assert.Equal(t, 1, sum.Physical)
	require.Len(t, repo.txs.inserted, 1)
	assert.True(t, decimal.RequireFromString("14").Equal(repo.txs.inserted[0].Fees))
}

func TestRunInsertRaceCountsAsLedgered(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "10.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
	})
	repo.txs.duplicates[1] = true

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Migrated)
	assert.Equal(t, 1, sum.AlreadyLedgered)
	assert.Empty(t, sum.Skipped)
}

func TestRunDerivesEachOrderInOneTransaction(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "10.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
		succeededOrder(2, "10.00", `[{"productId":20,"quantity":1,"productType":"magnet"}]`),
		succeededOrder(3, "junk", ``),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	// every order, including skips, goes through the transaction helper so
	// the existence check and insert share one serializable scope
	assert.Equal(t, 3, sum.Considered)
	assert.Equal(t, 3, repo.txCalls)
}

func TestRunRetriedTransactionCountsOnce(t *testing.T) {
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "100.00", `[{"productId":10,"quantity":1,"productType":"digital"}]`),
	})
	repo.txRetries = 2

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	// a replayed closure must not inflate the summary or the ledger
	assert.Equal(t, 1, sum.Migrated)
	assert.Equal(t, 1, sum.Digital)
	assert.Equal(t, 0, sum.AlreadyLedgered)
	assert.Len(t, repo.txs.inserted, 1)
}

func TestRunMalformedItemEntriesAreDropped(t *testing.T) {
	// one broken entry must not sink the order when a later entry resolves
	repo := newFakeRepo([]entity.Order{
		succeededOrder(1, "25.00", `[17, {"productId":11,"quantity":1,"productType":"digital"}]`),
	})

	sum, err := New(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Migrated)
	require.Len(t, repo.txs.inserted, 1)
	assert.Equal(t, 101, repo.txs.inserted[0].AssociationID)
}
