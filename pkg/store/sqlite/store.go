// Package sqlite stores template records in a SQLite database (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/xob0t/GoMockup/pkg/template"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	product_id   TEXT NOT NULL,
	variation_id TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	base_path    TEXT NOT NULL DEFAULT '',
	rotation     REAL,
	scale        REAL,
	PRIMARY KEY (product_id, variation_id)
);`

var _ template.Store = (*Store)(nil)

// Store is a template.Store backed by a SQLite table.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the database at dataSourceName.
func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Each connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create templates table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key template.Key) (*template.Record, error) {
	rec := template.Record{ProductID: key.ProductID, VariationID: key.VariationID}
	var rotation, scale sql.NullFloat64

	err := s.db.QueryRowContext(ctx,
		"SELECT title, base_path, rotation, scale FROM templates WHERE product_id = ? AND variation_id = ?",
		key.ProductID, key.VariationID,
	).Scan(&rec.Title, &rec.BasePath, &rotation, &scale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", template.ErrNotFound, key)
		}
		return nil, err
	}

	rec.Placement.Rotation = fromNull(rotation)
	rec.Placement.Scale = fromNull(scale)
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *template.Record) error {
	if rec.ProductID == "" {
		return fmt.Errorf("save template: empty product id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (product_id, variation_id, title, base_path, rotation, scale)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id, variation_id) DO UPDATE SET
			title = excluded.title,
			base_path = excluded.base_path,
			rotation = excluded.rotation,
			scale = excluded.scale`,
		rec.ProductID, rec.VariationID, rec.Title, rec.BasePath,
		toNull(rec.Placement.Rotation), toNull(rec.Placement.Scale),
	)
	if err != nil {
		logrus.WithError(err).WithField("template", rec.Key().String()).Error("Failed to save template")
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key template.Key) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM templates WHERE product_id = ? AND variation_id = ?",
		key.ProductID, key.VariationID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", template.ErrNotFound, key)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*template.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, variation_id, title, base_path, rotation, scale FROM templates ORDER BY product_id, variation_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*template.Record
	for rows.Next() {
		var (
			rec             template.Record
			rotation, scale sql.NullFloat64
		)
		if err := rows.Scan(&rec.ProductID, &rec.VariationID, &rec.Title, &rec.BasePath, &rotation, &scale); err != nil {
			return nil, err
		}
		rec.Placement.Rotation = fromNull(rotation)
		rec.Placement.Scale = fromNull(scale)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
