// Package postgresql provides the PostgreSQL persistence implementation for
// approval workflow state.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/persistence/sqlbase"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository works
// inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
	repos
}

// repos binds the repositories to a querier.
type repos struct {
	q        querier
	inTx     bool
	logger   *slog.Logger
}

// NewPersistence connects, migrates, and returns a ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
		repos:  repos{q: database, logger: logger},
	}, nil
}

// Transaction runs fn inside a single database transaction. Step loads via
// ByIDForUpdate take row locks, so concurrent writers serialize per step.
func (p *Persistence) Transaction(ctx context.Context, fn func(ctx context.Context, tx persistence.Repositories) error) error {
	transaction, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepos := repos{q: transaction, inTx: true, logger: p.logger}

	err = fn(ctx, txRepos)
	if err != nil {
		rollbackErr := transaction.Rollback()
		if rollbackErr != nil {
			p.logger.ErrorContext(ctx, "failed to roll back transaction", "error", rollbackErr)
		}

		return err
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// DB exposes the underlying handle for collaborators sharing the portal
// database (identity directory, entity status writes).
func (p *Persistence) DB() *sql.DB {
	return p.db
}

func (r repos) Definitions() persistence.DefinitionRepository {
	return &DefinitionRepository{q: r.q, logger: r.logger}
}

func (r repos) Instances() persistence.InstanceRepository {
	return &InstanceRepository{q: r.q, logger: r.logger}
}

func (r repos) Steps() persistence.StepRepository {
	return &StepRepository{q: r.q, inTx: r.inTx, logger: r.logger}
}

func (r repos) SLAs() persistence.SLARepository {
	return &SLARepository{q: r.q, logger: r.logger}
}

func (r repos) Votes() persistence.VoteRepository {
	return &VoteRepository{q: r.q, logger: r.logger}
}

func (r repos) Delegations() persistence.DelegationRepository {
	return &DelegationRepository{q: r.q, logger: r.logger}
}

var _ persistence.Persistence = (*Persistence)(nil)
