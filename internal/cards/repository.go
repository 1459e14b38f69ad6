package cards

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardmint/cardmint/internal/platform/db"
	"github.com/cardmint/cardmint/internal/shared"
)

const uniqueViolation = "23505"

// RepositoryPort defines the storage surface the card service consumes.
type RepositoryPort interface {
	GetCard(ctx context.Context, id int64) (*Card, error)
	ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error)
	CreateCard(ctx context.Context, card Card) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status CardStatus) error
	DeleteCard(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerUsername string, page shared.Pagination) ([]Card, int, error)
	AllByOwner(ctx context.Context, ownerUsername string) ([]Card, error)
	ListAll(ctx context.Context, page shared.Pagination) ([]Card, int, error)
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxPort) error) error
}

// TxPort exposes the operations available inside a transfer transaction.
// GetCardForUpdate takes a row lock so concurrent transfers over the same
// card serialize instead of double-spending a stale balance.
type TxPort interface {
	GetCardForUpdate(ctx context.Context, id int64) (*Card, error)
	UpdateBalance(ctx context.Context, id int64, balance float64) error
}

// Repository provides PostgreSQL backed persistence for cards.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const cardColumns = `c.id, c.owner_id, u.username, c.number_encrypted, c.expiry_date, c.status, c.balance, c.created_at, c.updated_at`

func scanCard(row pgx.Row) (*Card, error) {
	var c Card
	var status string
	err := row.Scan(&c.ID, &c.OwnerID, &c.OwnerUsername, &c.NumberEncrypted, &c.ExpiryDate, &status, &c.Balance, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	c.Status = CardStatus(status)
	return &c, nil
}

// GetCard loads one card with its owner resolved.
func (r *Repository) GetCard(ctx context.Context, id int64) (*Card, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1`, id)
	return scanCard(row)
}

// ExistsByEncryptedNumber reports whether a ciphertext is already stored.
func (r *Repository) ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE number_encrypted = $1)`, encrypted).Scan(&exists)
	return exists, err
}

// CreateCard persists a new card and returns its id.
func (r *Repository) CreateCard(ctx context.Context, card Card) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cards (owner_id, number_encrypted, expiry_date, status, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id`,
		card.OwnerID, card.NumberEncrypted, card.ExpiryDate, string(card.Status), card.Balance).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// UpdateStatus sets the lifecycle status of a card.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status CardStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cards SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCard removes a card record.
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByOwner returns one page of a user's cards plus the total count.
func (r *Repository) ListByOwner(ctx context.Context, ownerUsername string, page shared.Pagination) ([]Card, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM cards c JOIN users u ON u.id = c.owner_id WHERE u.username = $1`,
		ownerUsername).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON u.id = c.owner_id
		WHERE u.username = $1
		ORDER BY c.id
		LIMIT $2 OFFSET $3`, ownerUsername, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := collectCards(rows)
	return list, total, err
}

// AllByOwner returns every card of one user. Used by searches that filter
// on the decrypted number, which cannot happen inside SQL.
func (r *Repository) AllByOwner(ctx context.Context, ownerUsername string) ([]Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON u.id = c.owner_id
		WHERE u.username = $1
		ORDER BY c.id`, ownerUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

// ListAll returns one page over every card plus the total count.
func (r *Repository) ListAll(ctx context.Context, page shared.Pagination) ([]Card, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM cards`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON u.id = c.owner_id
		ORDER BY c.id
		LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := collectCards(rows)
	return list, total, err
}

// MarkExpired flips past-expiry active or blocked cards to EXPIRED and
// returns how many rows changed. Invoked by the scheduled sweep, never by
// the core operations.
func (r *Repository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cards SET status = $2, updated_at = now()
		WHERE expiry_date < $1 AND status <> $2`, asOf, string(StatusExpired))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectCards(rows pgx.Rows) ([]Card, error) {
	var list []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetCardForUpdate loads a card under FOR UPDATE within the transaction.
func (t *txRepo) GetCardForUpdate(ctx context.Context, id int64) (*Card, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM cards c
		JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1
		FOR UPDATE OF c`, id)
	return scanCard(row)
}

// UpdateBalance writes an absolute balance for a locked card row.
func (t *txRepo) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE cards SET balance = $2, updated_at = now() WHERE id = $1`, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
