// Package interfaces defines storage, service, and client contracts for depotd
package interfaces

import (
	"context"

	"github.com/depotd/depotd/internal/models"
)

// Store is the relational persistence root. Transaction runs fn against a
// store bound to one database transaction: every write inside fn commits
// together or not at all. Nested calls become savepoints.
type Store interface {
	Users() UserStore
	Depots() DepotStore
	Holdings() HoldingStore
	Transactions() TransactionStore
	Mappings() MappingStore

	Transaction(ctx context.Context, fn func(Store) error) error
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// DepotStore persists depots. GetOwned enforces the ownership check and
// returns NotFoundError for depots belonging to other users.
type DepotStore interface {
	Create(ctx context.Context, depot *models.Depot) error
	GetOwned(ctx context.Context, id, userID string) (*models.Depot, error)
	ListByUser(ctx context.Context, userID string) ([]models.Depot, error)
	Update(ctx context.Context, depot *models.Depot) error
	// Delete removes the depot and cascades to its holdings and transactions.
	Delete(ctx context.Context, id string) error
	// Clear removes all holdings and transactions of a depot, keeping the
	// depot itself.
	Clear(ctx context.Context, id string) (int64, error)
}

// HoldingStore persists aggregate positions. Methods taking forUpdate lock
// the row for the duration of the surrounding transaction so concurrent
// buys/sells against the same holding serialize.
type HoldingStore interface {
	Create(ctx context.Context, holding *models.Holding) error
	Get(ctx context.Context, id string) (*models.Holding, error)
	GetForUpdate(ctx context.Context, id string) (*models.Holding, error)
	GetByDepotAndSymbol(ctx context.Context, depotID, symbol string, forUpdate bool) (*models.Holding, error)
	ListByDepot(ctx context.Context, depotID string) ([]models.Holding, error)
	ListByUser(ctx context.Context, userID string) ([]models.Holding, error)
	ListByUserAndISIN(ctx context.Context, userID, isin string) ([]models.Holding, error)
	Update(ctx context.Context, holding *models.Holding) error
	// Delete removes the holding and its transactions.
	Delete(ctx context.Context, id string) error
	// DeleteByDepotAndISINs removes holdings (and their transactions) of a
	// depot whose ISIN is in the given set. Used by replace-mode import.
	DeleteByDepotAndISINs(ctx context.Context, depotID string, isins []string) error
}

// TransactionStore persists the append-only transaction log.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, id string) (*models.Transaction, error)
	// ListByHolding returns transactions newest-first.
	ListByHolding(ctx context.Context, holdingID string) ([]models.Transaction, error)
	// ListByHoldingAsc returns transactions in timestamp order, for replay.
	ListByHoldingAsc(ctx context.Context, holdingID string) ([]models.Transaction, error)
	// ListByHoldingIDs returns transactions of all given holdings in
	// timestamp order.
	ListByHoldingIDs(ctx context.Context, holdingIDs []string) ([]models.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// MappingStore persists per-user ISIN-to-symbol mappings, unique on
// (user, isin).
type MappingStore interface {
	Create(ctx context.Context, mapping *models.IsinMapping) error
	GetOwned(ctx context.Context, id, userID string) (*models.IsinMapping, error)
	GetByISIN(ctx context.Context, userID, isin string) (*models.IsinMapping, error)
	List(ctx context.Context, userID string) ([]models.IsinMapping, error)
	Update(ctx context.Context, mapping *models.IsinMapping) error
	Delete(ctx context.Context, id, userID string) error
	// UpsertPlaceholder inserts an empty-symbol mapping if none exists for
	// (userID, isin). A no-op when the mapping is already present.
	UpsertPlaceholder(ctx context.Context, userID, isin, name string) error
}
