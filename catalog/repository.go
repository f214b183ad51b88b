package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Row is one previously uploaded asset, keyed by its content digest. The
// catalog feeds the known-digest set used for duplicate detection; it does
// not track upload state.
type Row struct {
	Digest      string
	Name        string
	Size        int64
	EntityType  string
	EntityId    string
	UploadedKey string
	CreatedAt   time.Time
}

type Repository interface {
	Add(ctx context.Context, row *Row) error
	Has(ctx context.Context, digest string) (bool, error)
	GetByDigest(ctx context.Context, digest string) (*Row, error)
	KnownDigests(ctx context.Context) (map[string]bool, error)
	List(ctx context.Context) ([]Row, error)
	Remove(ctx context.Context, digest string) error
}

type catalogRepo struct {
	db *DB
}

func NewRepository(db *DB) Repository {
	return catalogRepo{db: db}
}

func (r catalogRepo) Add(ctx context.Context, row *Row) error {
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.D.ExecContext(ctx,
		`INSERT INTO catalog (digest, name, size, entity_type, entity_id, uploaded_key, created_at)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT(digest) DO UPDATE SET name=excluded.name, uploaded_key=excluded.uploaded_key`,
		row.Digest,
		row.Name,
		row.Size,
		row.EntityType,
		row.EntityId,
		row.UploadedKey,
		ToTimeStr(createdAt),
	)
	if err != nil {
		return fmt.Errorf("could not add digest %s to catalog: %w", row.Digest, err)
	}
	return nil
}

func (r catalogRepo) Has(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.db.D.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM catalog WHERE digest=?", digest).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("could not check digest %s: %w", digest, err)
	}
	return count > 0, nil
}

func (r catalogRepo) GetByDigest(ctx context.Context, digest string) (*Row, error) {
	var row Row
	var createdAtStr string
	err := r.db.D.QueryRowContext(ctx,
		`SELECT digest, name, size, entity_type, entity_id, uploaded_key, created_at
     FROM catalog WHERE digest=?`, digest).
		Scan(&row.Digest, &row.Name, &row.Size, &row.EntityType, &row.EntityId, &row.UploadedKey, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrDoesNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("could not get catalog row for digest %s: %w", digest, err)
	}
	row.CreatedAt = FromTimeStr(createdAtStr)
	return &row, nil
}

func (r catalogRepo) KnownDigests(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.D.QueryContext(ctx, "SELECT digest FROM catalog")
	if err != nil {
		return nil, fmt.Errorf("could not list known digests: %w", err)
	}
	defer rows.Close()

	digests := make(map[string]bool)
	for rows.Next() {
		var digest string
		err := rows.Scan(&digest)
		if err != nil {
			return nil, err
		}
		digests[digest] = true
	}
	return digests, rows.Err()
}

func (r catalogRepo) List(ctx context.Context) ([]Row, error) {
	rows, err := r.db.D.QueryContext(ctx,
		`SELECT digest, name, size, entity_type, entity_id, uploaded_key, created_at
     FROM catalog ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("could not list catalog rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		var createdAtStr string
		err := rows.Scan(&row.Digest, &row.Name, &row.Size, &row.EntityType, &row.EntityId, &row.UploadedKey, &createdAtStr)
		if err != nil {
			return nil, err
		}
		row.CreatedAt = FromTimeStr(createdAtStr)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r catalogRepo) Remove(ctx context.Context, digest string) error {
	res, err := r.db.D.ExecContext(ctx, "DELETE FROM catalog WHERE digest=?", digest)
	if err != nil {
		return fmt.Errorf("could not remove digest %s: %w", digest, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrDoesNotExist
	}
	return nil
}
