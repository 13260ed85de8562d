// Package storage implements the relational store on gorm.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
)

// GormStore implements interfaces.Store on a gorm DB handle. The same type
// serves both the root connection and transaction-bound views; Transaction
// hands fn a store whose handle is the open transaction.
type GormStore struct {
	db     *gorm.DB
	logger *common.Logger

	// rowLocks is true on dialects supporting SELECT ... FOR UPDATE.
	// SQLite serializes writers on its own and rejects the syntax.
	rowLocks bool
}

// Open connects to the configured database, runs migrations, and returns
// the store.
func Open(cfg common.DatabaseConfig, logger *common.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := newStore(db, logger)
	if err := store.migrate(); err != nil {
		return nil, err
	}

	logger.Info().Str("dialect", db.Dialector.Name()).Msg("Database connected")
	return store, nil
}

func newStore(db *gorm.DB, logger *common.Logger) *GormStore {
	return &GormStore{
		db:       db,
		logger:   logger,
		rowLocks: db.Dialector.Name() == "postgres",
	}
}

func (s *GormStore) migrate() error {
	err := s.db.AutoMigrate(
		&models.User{},
		&models.Depot{},
		&models.Holding{},
		&models.Transaction{},
		&models.IsinMapping{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// with returns a store view bound to the given handle.
func (s *GormStore) with(db *gorm.DB) *GormStore {
	return &GormStore{db: db, logger: s.logger, rowLocks: s.rowLocks}
}

// Transaction runs fn inside one database transaction. Nested calls use
// savepoints, so a failing inner unit rolls back without aborting the outer
// one.
func (s *GormStore) Transaction(ctx context.Context, fn func(interfaces.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.with(tx))
	})
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Users() interfaces.UserStore               { return &userStore{s} }
func (s *GormStore) Depots() interfaces.DepotStore             { return &depotStore{s} }
func (s *GormStore) Holdings() interfaces.HoldingStore         { return &holdingStore{s} }
func (s *GormStore) Transactions() interfaces.TransactionStore { return &transactionStore{s} }
func (s *GormStore) Mappings() interfaces.MappingStore         { return &mappingStore{s} }

func newID() string {
	return uuid.New().String()
}

// translateErr maps gorm errors to the domain error taxonomy.
func translateErr(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &models.NotFoundError{Resource: resource, ID: id}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &models.ConflictError{Resource: resource}
	default:
		return fmt.Errorf("%s: %w", resource, err)
	}
}
