package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/dto"
	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/assolib/assolib-manager/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotImplemented = errors.New("not implemented in fake")

type fakeCatalog struct {
	associations map[int]*entity.Association
}

func (f *fakeCatalog) GetAssociationByID(ctx context.Context, id int) (*entity.Association, error) {
	a, ok := f.associations[id]
	if !ok {
		return nil, store.ErrAssociationNotFound
	}
	return a, nil
}

func (f *fakeCatalog) GetAssociationIDByProduct(ctx context.Context, productID int) (int, error) {
	return 0, errNotImplemented
}

func (f *fakeCatalog) GetProductNames(ctx context.Context, ids []int) (map[int]string, error) {
	return nil, errNotImplemented
}

type fakeTransactions struct {
	byAssociation map[int][]entity.Transaction
	lastLimit     int
	lastOffset    int
}

func (f *fakeTransactions) HasTransactionForOrder(ctx context.Context, orderID int) (bool, error) {
	return false, errNotImplemented
}

func (f *fakeTransactions) InsertTransaction(ctx context.Context, t *entity.TransactionInsert) (int, error) {
	return 0, errNotImplemented
}

func (f *fakeTransactions) GetTransactionsByAssociation(ctx context.Context, associationID, limit, offset int) ([]entity.Transaction, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.byAssociation[associationID], nil
}

type fakeRepo struct {
	catalog *fakeCatalog
	txs     *fakeTransactions
}

func (f *fakeRepo) Order() dependency.Order             { return nil }
func (f *fakeRepo) Transaction() dependency.Transaction { return f.txs }
func (f *fakeRepo) Catalog() dependency.Catalog         { return f.catalog }
func (f *fakeRepo) Metrics() dependency.Metrics         { return nil }
func (f *fakeRepo) Tx(ctx context.Context, fn func(context.Context, dependency.Repository) error) error {
	return fn(ctx, f)
}
func (f *fakeRepo) TxBegin(ctx context.Context) (dependency.Repository, error) { return f, nil }
func (f *fakeRepo) TxCommit(ctx context.Context) error                         { return nil }
func (f *fakeRepo) TxRollback(ctx context.Context) error                       { return nil }
func (f *fakeRepo) Now() time.Time                                             { return time.Now() }
func (f *fakeRepo) InTx() bool                                                 { return false }
func (f *fakeRepo) Close()                                                     {}
func (f *fakeRepo) IsErrUniqueViolation(err error) bool                        { return false }
func (f *fakeRepo) IsErrorRepeat(err error) bool                               { return false }
func (f *fakeRepo) DB() dependency.DB                                          { return nil }

func newTestServer(t *testing.T) (*Server, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{
		catalog: &fakeCatalog{associations: map[int]*entity.Association{
			7: {User: entity.User{ID: 7, Name: "Les Amis"}, UserTypeName: entity.UserTypeAssociation},
		}},
		txs: &fakeTransactions{byAssociation: map[int][]entity.Transaction{}},
	}
	srv := New(&Config{
		Port:      "0",
		Address:   "localhost",
		JWTSecret: "test-secret",
	}, nil, nil, repo)
	return srv, repo
}

func adminRequest(t *testing.T, srv *Server, method, target string) *http.Request {
	t.Helper()
	_, token, err := srv.auth.Encode(map[string]interface{}{"sub": "admin"})
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func TestListTransactionsRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/associations/7/transactions", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTransactionsUnknownAssociation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, adminRequest(t, srv, http.MethodGet, "/api/admin/associations/99/transactions"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactions(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.txs.byAssociation[7] = []entity.Transaction{
		{
			ID:            3,
			OrderID:       sql.NullInt32{Int32: 42, Valid: true},
			Amount:        decimal.RequireFromString("100.00"),
			Fees:          decimal.RequireFromString("20.00"),
			NetAmount:     decimal.RequireFromString("80.00"),
			AssociationID: 7,
			Status:        entity.TransactionCompleted,
		},
		{
			ID:            2,
			OrderID:       sql.NullInt32{}, // order deleted, weak reference
			Amount:        decimal.RequireFromString("10.00"),
			Fees:          decimal.RequireFromString("3.50"),
			NetAmount:     decimal.RequireFromString("6.50"),
			AssociationID: 7,
			Status:        entity.TransactionCompleted,
		},
	}

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, adminRequest(t, srv, http.MethodGet, "/api/admin/associations/7/transactions"))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Transactions []dto.Transaction `json:"transactions"`
		Limit        int               `json:"limit"`
		Offset       int               `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Transactions, 2)
	require.NotNil(t, body.Transactions[0].OrderID)
	assert.Equal(t, 42, *body.Transactions[0].OrderID)
	assert.Equal(t, "100", body.Transactions[0].Amount)
	assert.Nil(t, body.Transactions[1].OrderID)
	assert.Equal(t, 50, body.Limit)
}

func TestListTransactionsPaginationClamped(t *testing.T) {
	srv, repo := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, adminRequest(t, srv, http.MethodGet,
		"/api/admin/associations/7/transactions?limit=10000&offset=-3"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultTransactionsLimit, repo.txs.lastLimit)
	assert.Equal(t, 0, repo.txs.lastOffset)
}
