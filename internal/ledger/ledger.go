package ledger

import (
	"context"
	"log/slog"

	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/store"
)

// Ledger applies asset movements to a Store.
//
// Thread-safety: all methods may be called from any goroutine. Movements on
// the same account serialize on the store's write transaction.
type Ledger struct {
	store  *store.Store
	ids    model.IDGenerator
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator sets the generator for transaction ids.
// Default: UUIDv7.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(l *Ledger) {
		l.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates a Ledger over s.
func New(s *store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		ids:    model.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// movement is the state change of one verb. It returns the receipt fields
// it determines; apply fills in id and timestamp.
type movement func(tx *store.Tx) (model.Receipt, error)

// apply runs mv in a transaction and appends its receipt under ref.
// If ref already has a transaction, that receipt is returned unchanged.
func (l *Ledger) apply(ctx context.Context, ref string, mv movement) (model.Receipt, error) {
	var out model.Receipt
	replayed := false
	err := l.store.InTx(ctx, func(tx *store.Tx) error {
		if ref != "" {
			prior, found, err := tx.TransactionByRef(ctx, ref)
			if err != nil {
				return err
			}
			if found {
				out, replayed = prior, true
				return nil
			}
		}

		r, err := mv(tx)
		if err != nil {
			return err
		}
		r.ID = l.ids.Generate()
		r.Timestamp = tx.Now()
		if err := tx.AppendTransaction(ctx, ref, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return model.Receipt{}, err
	}

	if replayed {
		l.logger.Debug("movement already applied", "ref", ref, "tx", out.ID)
	} else {
		l.logger.Info("movement applied",
			"ref", ref,
			"tx", out.ID,
			"type", out.OperationType,
			"asset", out.Asset.ID,
			"quantity", out.Quantity.String(),
		)
	}
	return out, nil
}

// resolveAsset loads the registered asset and checks the caller's type
// discriminator against it.
func resolveAsset(ctx context.Context, tx *store.Tx, a model.Asset) (model.Asset, error) {
	stored, err := tx.Asset(ctx, a.ID)
	if err != nil {
		return model.Asset{}, err
	}
	if a.Type != "" && a.Type != stored.Type {
		return model.Asset{}, model.NewBusinessError(model.CodeAssetTypeMismatch,
			"asset %s is %s, not %s", a.ID, stored.Type, a.Type)
	}
	return stored, nil
}

// CreateAsset registers an asset. Registering the same id and type again
// is a no-op; a different type fails with CodeAssetTypeMismatch.
func (l *Ledger) CreateAsset(ctx context.Context, a model.Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	var created bool
	err := l.store.InTx(ctx, func(tx *store.Tx) error {
		var err error
		created, err = tx.CreateAsset(ctx, a)
		return err
	})
	if err != nil {
		return err
	}
	if created {
		l.logger.Info("asset created", "asset", a.ID, "type", a.Type)
	}
	return nil
}

// Balance returns owner's balance of assetID. Unknown accounts read as
// zero; an unregistered asset fails with CodeUnknownAsset.
func (l *Ledger) Balance(ctx context.Context, owner, assetID string) (model.Quantity, error) {
	return l.store.Balance(ctx, owner, assetID)
}

// Holders lists every account of assetID with its balance, ordered by
// owner.
func (l *Ledger) Holders(ctx context.Context, assetID string) ([]store.AccountBalance, error) {
	return l.store.Balances(ctx, assetID)
}

// Receipt looks up a transaction by id. Unknown ids return store.ErrNotFound.
func (l *Ledger) Receipt(ctx context.Context, id string) (model.Receipt, error) {
	return l.store.Receipt(ctx, id)
}

// History returns every receipt in the order it was written.
func (l *Ledger) History(ctx context.Context) ([]model.Receipt, error) {
	return l.store.Transactions(ctx)
}
