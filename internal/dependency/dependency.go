package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/jmoiron/sqlx"
)

//go:generate mockery --with-expecter --case underscore --all --output=./mocks
type (
	Order interface {
		// GetOrderFullByID returns an order with its ownership join rows and
		// donor, for projection.
		GetOrderFullByID(ctx context.Context, id int) (*entity.OrderFull, error)
		// GetSucceededOrders returns all orders in succeeded status, oldest
		// first, for the ledger derivation sweep.
		GetSucceededOrders(ctx context.Context) ([]entity.Order, error)
		// GetOrderBundles returns the legacy per-bundle sub-records of an
		// order. Empty for orders written by the current checkout.
		GetOrderBundles(ctx context.Context, orderID int) ([]entity.OrderBundle, error)
		// SetDeliveryStatus updates delivery_status and nothing else.
		SetDeliveryStatus(ctx context.Context, orderID int, status string) error
		// SetFiscStatus updates fisc_status and nothing else.
		SetFiscStatus(ctx context.Context, orderID int, status string) error
		// SetExported flips the export flag and nothing else.
		SetExported(ctx context.Context, orderID int, exported bool) error
	}

	Transaction interface {
		// HasTransactionForOrder reports whether a non-payout transaction
		// already references the order.
		HasTransactionForOrder(ctx context.Context, orderID int) (bool, error)
		// InsertTransaction appends a ledger entry and returns its id.
		// Monetary fields are truncated to 2 decimal places on write.
		InsertTransaction(ctx context.Context, t *entity.TransactionInsert) (int, error)
		// GetTransactionsByAssociation lists ledger entries for an
		// association, newest first.
		GetTransactionsByAssociation(ctx context.Context, associationID, limit, offset int) ([]entity.Transaction, error)
	}

	Catalog interface {
		// GetAssociationByID resolves a user id to an association, failing
		// when the user does not exist or is not of the association type.
		GetAssociationByID(ctx context.Context, id int) (*entity.Association, error)
		// GetAssociationIDByProduct walks product -> campaign -> owning user.
		GetAssociationIDByProduct(ctx context.Context, productID int) (int, error)
		// GetProductNames batch-resolves product ids to names. Missing ids
		// are absent from the map, not an error.
		GetProductNames(ctx context.Context, ids []int) (map[int]string, error)
	}

	Metrics interface {
		GetDonorMetrics(ctx context.Context, associationID *int, period entity.TimeRange) (entity.DonorMetrics, error)
		GetCampaignMetrics(ctx context.Context, associationID *int) (entity.CampaignMetrics, error)
		GetCardMetrics(ctx context.Context, associationID *int, period entity.TimeRange) (entity.CardMetrics, error)
		GetFinancialMetrics(ctx context.Context, associationID *int, period entity.TimeRange) (entity.FinancialMetrics, error)
		// GetRevenueRows returns one row per succeeded order in-period,
		// ordered by placement time; bucketing happens in the report layer.
		GetRevenueRows(ctx context.Context, associationID *int, period entity.TimeRange) ([]entity.RevenueRow, error)
		GetCategoryDistribution(ctx context.Context) ([]entity.CategoryCount, error)
		GetTopAssociations(ctx context.Context, period entity.TimeRange, limit int) ([]entity.AssociationRank, error)
	}

	Repository interface {
		Order() Order
		Transaction() Transaction
		Catalog() Catalog
		Metrics() Metrics
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
		PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
		PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}
)
