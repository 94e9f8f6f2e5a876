package receipt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
	txcontext "minkyc/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const receiptColumns = `address, identity, owner, verifier, proof_hash, requirement_hash, used, timestamp, sequence`

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, r *models.ProofReceipt) error {
	query := `
		INSERT INTO proof_receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (address) DO NOTHING
		RETURNING address
	`
	var inserted []byte
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query,
		r.Address[:],
		r.Identity[:],
		string(r.Owner),
		string(r.Verifier),
		r.ProofHash[:],
		r.RequirementHash[:],
		r.Used,
		r.Timestamp,
		strconv.FormatUint(r.Sequence, 10),
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("receipt %s: %w", r.Address, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert proof receipt: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAddress(ctx context.Context, addr domain.Address) (*models.ProofReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM proof_receipts WHERE address = $1`
	return scanReceipt(txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, addr[:]))
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identity domain.Address) ([]*models.ProofReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM proof_receipts WHERE identity = $1 ORDER BY sequence ASC`
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, query, identity[:])
	if err != nil {
		return nil, fmt.Errorf("list proof receipts: %w", err)
	}
	defer rows.Close()
	return scanReceipts(rows)
}

// FindConsumed looks up many receipt addresses in one round trip.
func (s *PostgresStore) FindConsumed(ctx context.Context, addrs []domain.Address) ([]*models.ProofReceipt, error) {
	if len(addrs) == 0 {
		return []*models.ProofReceipt{}, nil
	}
	keys := make([][]byte, 0, len(addrs))
	for _, a := range addrs {
		keys = append(keys, append([]byte(nil), a[:]...))
	}
	query := `SELECT ` + receiptColumns + ` FROM proof_receipts WHERE address = ANY($1) ORDER BY sequence ASC`
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find consumed receipts: %w", err)
	}
	defer rows.Close()
	return scanReceipts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipts(rows *sql.Rows) ([]*models.ProofReceipt, error) {
	out := []*models.ProofReceipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proof receipts: %w", err)
	}
	return out, nil
}

func scanReceipt(row rowScanner) (*models.ProofReceipt, error) {
	var (
		addr, identity, proofHash, reqHash []byte
		owner, verifier, seq               string
		r                                  models.ProofReceipt
	)
	err := row.Scan(&addr, &identity, &owner, &verifier, &proofHash, &reqHash, &r.Used, &r.Timestamp, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proof receipt: %w", err)
	}
	for _, pair := range []struct {
		dst []byte
		src []byte
	}{
		{r.Address[:], addr},
		{r.Identity[:], identity},
		{r.ProofHash[:], proofHash},
		{r.RequirementHash[:], reqHash},
	} {
		if len(pair.src) != len(pair.dst) {
			return nil, fmt.Errorf("scan proof receipt: malformed key material")
		}
		copy(pair.dst, pair.src)
	}
	r.Owner = domain.OwnerID(owner)
	r.Verifier = domain.OwnerID(verifier)
	if r.Sequence, err = strconv.ParseUint(seq, 10, 64); err != nil {
		return nil, fmt.Errorf("parse receipt sequence: %w", err)
	}
	return &r, nil
}
