package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBackfillCategories, downBackfillCategories)
}

// Products historically carried a free-text category field. This step derives
// the distinct Category set from it and rewires products to category_id, in
// the same upgrade transaction so a crash leaves neither half applied.
func upBackfillCategories(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`ALTER TABLE products ADD COLUMN category_id INTEGER REFERENCES categories(id)`,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (name)
		SELECT DISTINCT TRIM(category) FROM products
		WHERE category IS NOT NULL AND TRIM(category) != ''
		  AND TRIM(category) NOT IN (SELECT name FROM categories)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET category_id = (SELECT id FROM categories c WHERE c.name = TRIM(products.category))
		WHERE category IS NOT NULL AND TRIM(category) != ''
	`); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `UPDATE products SET category = NULL`)
	return err
}

func downBackfillCategories(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET category = (SELECT name FROM categories c WHERE c.id = products.category_id)
	`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `ALTER TABLE products DROP COLUMN category_id`)
	return err
}
