package counter

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	txcontext "minkyc/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LoadForUpdate materializes the counter row inside the caller's transaction so
// concurrent creations for one owner queue on the row lock. A rolled-back
// transaction leaves no row behind.
func (s *PostgresStore) LoadForUpdate(ctx context.Context, addr domain.Address, owner domain.OwnerID) (*models.IdentityCounter, error) {
	exec := txcontext.Execer(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO identity_counters (address, owner, count)
		VALUES ($1, $2, 0)
		ON CONFLICT (address) DO NOTHING
	`, addr[:], string(owner))
	if err != nil {
		return nil, fmt.Errorf("ensure identity counter: %w", err)
	}

	var count string
	err = exec.QueryRowContext(ctx,
		`SELECT count FROM identity_counters WHERE address = $1 FOR UPDATE`, addr[:],
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("lock identity counter: %w", err)
	}

	c := models.NewIdentityCounter(addr, owner)
	if c.Count, err = strconv.ParseUint(count, 10, 64); err != nil {
		return nil, fmt.Errorf("parse identity counter: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *models.IdentityCounter) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO identity_counters (address, owner, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET count = EXCLUDED.count
	`, c.Address[:], string(c.Owner), strconv.FormatUint(c.Count, 10))
	if err != nil {
		return fmt.Errorf("save identity counter: %w", err)
	}
	return nil
}
