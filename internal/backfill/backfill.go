// Package backfill derives ledger transactions from historical succeeded
// orders that predate transaction recording.
package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/assolib/assolib-manager/internal/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Skip reasons of the derivation sweep.
const (
	SkipMissingAssociation = "missing_association"
	SkipInvalidPrice       = "invalid_price"
	SkipError              = "error"
)

// Summary is the outcome of one sweep run.
type Summary struct {
	RunID           string         `json:"runId"`
	Considered      int            `json:"considered"`
	Migrated        int            `json:"migrated"`
	AlreadyLedgered int            `json:"alreadyLedgered"`
	Digital         int            `json:"digital"`
	Physical        int            `json:"physical"`
	Skipped         map[string]int `json:"skipped"`
}

// Service runs the derivation sweep.
type Service struct {
	repo dependency.Repository
}

// New creates a backfill service.
func New(repo dependency.Repository) *Service {
	return &Service{repo: repo}
}

// Run sweeps all succeeded orders oldest first and inserts one ledger
// transaction per order that has none yet. The sweep is idempotent: rerunning
// it inserts nothing new. Orders run strictly sequentially so the pre-insert
// existence check stays safe without a unique constraint; a failed order is
// counted and skipped, never aborts the sweep.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	orders, err := s.repo.Order().GetSucceededOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load succeeded orders: %w", err)
	}

	// the run id correlates the summary with the per-order log lines
	sum := &Summary{RunID: uuid.NewString(), Skipped: map[string]int{}}
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Considered++
		s.processOrder(ctx, &orders[i], sum)
	}

	slog.Default().InfoContext(ctx, "transaction backfill finished",
		slog.String("runId", sum.RunID),
		slog.Int("considered", sum.Considered),
		slog.Int("migrated", sum.Migrated),
		slog.Int("alreadyLedgered", sum.AlreadyLedgered),
		slog.Int("digital", sum.Digital),
		slog.Int("physical", sum.Physical),
		slog.Any("skipped", sum.Skipped),
	)
	return sum, nil
}

// outcome is the per-order derivation result. It is overwritten, never
// accumulated, so a serialization retry of the transaction closure cannot
// double-count.
type outcome struct {
	skipReason string
	skipDetail string
	already    bool
	migrated   bool
	digital    bool
}

// processOrder derives one order inside a single serializable transaction, so
// the existence check and the insert commit or roll back together and deadlock
// victims (MySQL 1213) are retried by the store.
func (s *Service) processOrder(ctx context.Context, o *entity.Order, sum *Summary) {
	var out outcome
	err := s.repo.Tx(ctx, func(ctx context.Context, tx dependency.Repository) error {
		out = outcome{}

		exists, err := tx.Transaction().HasTransactionForOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if exists {
			out.already = true
			return nil
		}

		associationID, ok := resolveAssociation(ctx, tx, o)
		if !ok {
			out.skipReason = SkipMissingAssociation
			out.skipDetail = "no line item resolves to an owning association"
			return nil
		}

		bundles, err := tx.Order().GetOrderBundles(ctx, o.ID)
		if err != nil {
			return err
		}

		amount, ok := orderAmount(o, bundles)
		if !ok {
			out.skipReason = SkipInvalidPrice
			out.skipDetail = "no positive amount on order or bundles"
			return nil
		}

		digital := isDigital(ctx, o, bundles)
		b := fees.Compute(amount, digital)

		if _, err := tx.Transaction().InsertTransaction(ctx, &entity.TransactionInsert{
			OrderID:       o.ID,
			Amount:        b.Amount,
			Fees:          b.Fees,
			NetAmount:     b.NetAmount,
			AssociationID: associationID,
		}); err != nil {
			return err
		}

		out.migrated = true
		out.digital = digital
		return nil
	})
	if err != nil {
		if s.repo.IsErrUniqueViolation(err) {
			// another writer beat the existence check
			sum.AlreadyLedgered++
			return
		}
		s.skip(ctx, o, sum, SkipError, err.Error())
		return
	}

	switch {
	case out.already:
		sum.AlreadyLedgered++
	case out.skipReason != "":
		s.skip(ctx, o, sum, out.skipReason, out.skipDetail)
	case out.migrated:
		sum.Migrated++
		if out.digital {
			sum.Digital++
		} else {
			sum.Physical++
		}
	}
}

// resolveAssociation walks the order's line items product by product until one
// traces to an owning association. Items whose productId is not a positive
// integer are passed over, as are products with a broken ownership chain.
func resolveAssociation(ctx context.Context, repo dependency.Repository, o *entity.Order) (int, bool) {
	for _, li := range o.Items() {
		productID, ok := li.ProductID.Int()
		if !ok {
			continue
		}
		associationID, err := repo.Catalog().GetAssociationIDByProduct(ctx, productID)
		if err != nil {
			continue
		}
		return associationID, true
	}
	return 0, false
}

// orderAmount prefers the order's own price column and falls back to summing
// the legacy bundle amounts when the column does not parse.
func orderAmount(o *entity.Order, bundles []entity.OrderBundle) (decimal.Decimal, bool) {
	if d, ok := o.PriceDecimal(); ok {
		return d, true
	}
	total := decimal.Zero
	for _, b := range bundles {
		total = total.Add(b.Amount)
	}
	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return total, true
}

// isDigital reports whether any line item or legacy bundle carries the digital
// marker. An order with neither typed items nor bundles is treated as
// physical, which charges the higher fee rate.
func isDigital(ctx context.Context, o *entity.Order, bundles []entity.OrderBundle) bool {
	if o.HasDigitalItem() {
		return true
	}
	for _, b := range bundles {
		if b.IsDigital {
			return true
		}
	}
	typed := false
	for _, li := range o.Items() {
		if li.ProductType.Valid() {
			typed = true
			break
		}
	}
	if !typed && len(bundles) == 0 {
		slog.Default().WarnContext(ctx, "order has no product type markers, charging physical rate",
			slog.Int("orderId", o.ID),
		)
	}
	return false
}

func (s *Service) skip(ctx context.Context, o *entity.Order, sum *Summary, reason, detail string) {
	sum.Skipped[reason]++
	slog.Default().WarnContext(ctx, "order skipped by transaction backfill",
		slog.String("runId", sum.RunID),
		slog.Int("orderId", o.ID),
		slog.String("reason", reason),
		slog.String("detail", detail),
	)
}
