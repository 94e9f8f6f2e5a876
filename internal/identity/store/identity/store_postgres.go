package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
	txcontext "minkyc/pkg/platform/tx"
)

// PostgresStore persists identity records. Unsigned 64-bit values are stored as
// NUMERIC(20,0) because BIGINT cannot hold the full range.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `address, owner, idx, commitment, status, verification_count, created_at, updated_at`

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, record *models.IdentityRecord) error {
	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
		RETURNING address
	`
	var inserted []byte
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query,
		record.Address[:],
		string(record.Owner),
		strconv.FormatUint(record.Index, 10),
		record.Commitment[:],
		string(record.Status),
		strconv.FormatUint(record.VerificationCount, 10),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("identity %s: %w", record.Address, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAddress(ctx context.Context, addr domain.Address) (*models.IdentityRecord, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE address = $1`
	return scanIdentity(txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, addr[:]))
}

func (s *PostgresStore) FindForUpdate(ctx context.Context, addr domain.Address) (*models.IdentityRecord, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE address = $1 FOR UPDATE`
	return scanIdentity(txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, addr[:]))
}

// Update writes the mutable columns; owner, index and created_at never change.
func (s *PostgresStore) Update(ctx context.Context, record *models.IdentityRecord) error {
	query := `
		UPDATE identities
		SET commitment = $2, status = $3, verification_count = $4, updated_at = $5
		WHERE address = $1
	`
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, query,
		record.Address[:],
		record.Commitment[:],
		string(record.Status),
		strconv.FormatUint(record.VerificationCount, 10),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.OwnerID) ([]*models.IdentityRecord, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE owner = $1 ORDER BY idx ASC`
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, query, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	out := []*models.IdentityRecord{}
	for rows.Next() {
		rec, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.IdentityRecord, error) {
	var (
		addr, commitment  []byte
		owner, status     string
		index, verifCount string
		rec               models.IdentityRecord
	)
	err := row.Scan(&addr, &owner, &index, &commitment, &status, &verifCount, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	if len(addr) != len(rec.Address) || len(commitment) != len(rec.Commitment) {
		return nil, fmt.Errorf("scan identity: malformed key material")
	}
	copy(rec.Address[:], addr)
	copy(rec.Commitment[:], commitment)
	rec.Owner = domain.OwnerID(owner)
	if rec.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	if rec.Index, err = strconv.ParseUint(index, 10, 64); err != nil {
		return nil, fmt.Errorf("scan identity index: %w", err)
	}
	if rec.VerificationCount, err = strconv.ParseUint(verifCount, 10, 64); err != nil {
		return nil, fmt.Errorf("scan identity verification count: %w", err)
	}
	return &rec, nil
}
