package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/repository"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a Postgres-backed DocumentStore implementation.
func NewDocumentRepository(pool *pgxpool.Pool) repository.DocumentStore {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Query(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Document, error) {
	const query = `
	SELECT collection, id, owner_id, payload, created_at, updated_at, deleted_at
	FROM documents
	WHERE collection = $1
	  AND owner_id = $2
	  AND deleted_at IS NULL
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, string(collection), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Upsert keeps the caller's updated_at so last-writer-wins comparisons use entity time.
// A newer remote tombstone is not resurrected by an older write, and a newer live
// document is reported as stale instead of being overwritten.
func (r *documentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" || doc.OwnerID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO documents (collection, owner_id, id, payload, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), COALESCE($6, NOW()))
	ON CONFLICT (collection, owner_id, id) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated_at = EXCLUDED.updated_at,
		deleted_at = NULL
	WHERE (documents.deleted_at IS NULL AND documents.updated_at <= EXCLUDED.updated_at)
	   OR documents.deleted_at < EXCLUDED.updated_at
	`

	tag, err := r.pool.Exec(ctx, query,
		string(doc.Collection),
		doc.OwnerID,
		doc.ID,
		jsonPayload(doc.Payload),
		nullTime(doc.CreatedAt),
		nullTime(doc.UpdatedAt),
	)
	if err != nil || tag.RowsAffected() > 0 {
		return err
	}

	// Nothing written: either a newer tombstone or a newer live copy holds the row.
	const current = `
	SELECT deleted_at IS NOT NULL
	FROM documents
	WHERE collection = $1 AND owner_id = $2 AND id = $3
	`
	var deleted bool
	if err := r.pool.QueryRow(ctx, current, string(doc.Collection), doc.OwnerID, doc.ID).Scan(&deleted); err != nil {
		return err
	}
	if deleted {
		return nil
	}
	return domain.ErrStaleWrite
}

func (r *documentRepository) Tombstone(ctx context.Context, collection domain.Collection, ownerID, id string, at time.Time) error {
	const query = `
	INSERT INTO documents (collection, owner_id, id, updated_at, deleted_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (collection, owner_id, id) DO UPDATE
	SET deleted_at = EXCLUDED.deleted_at
	WHERE documents.updated_at <= EXCLUDED.deleted_at
	`
	_, err := r.pool.Exec(ctx, query, string(collection), ownerID, id, at)
	return err
}

func (r *documentRepository) Tombstones(ctx context.Context, collection domain.Collection, ownerID string) ([]domain.Tombstone, error) {
	const query = `
	SELECT id, deleted_at
	FROM documents
	WHERE collection = $1
	  AND owner_id = $2
	  AND deleted_at IS NOT NULL
	`
	rows, err := r.pool.Query(ctx, query, string(collection), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tombs []domain.Tombstone
	for rows.Next() {
		var t domain.Tombstone
		if err := rows.Scan(&t.ID, &t.DeletedAt); err != nil {
			return nil, err
		}
		tombs = append(tombs, t)
	}
	return tombs, rows.Err()
}

func scanDocument(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Document, error) {
	var (
		doc        domain.Document
		collection string
		payload    []byte
	)
	if err := row.Scan(
		&collection,
		&doc.ID,
		&doc.OwnerID,
		&payload,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.DeletedAt,
	); err != nil {
		return nil, err
	}
	doc.Collection = domain.Collection(collection)
	doc.Payload = make([]byte, len(payload))
	copy(doc.Payload, payload)
	return &doc, nil
}
