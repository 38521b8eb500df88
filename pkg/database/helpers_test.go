package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const seedSchema = `
CREATE TABLE dim_customer (customer_id INTEGER PRIMARY KEY, customer_name TEXT NOT NULL);
CREATE TABLE dim_product (product_id INTEGER PRIMARY KEY, product_name TEXT NOT NULL);
CREATE TABLE fact_sales (
    customer_id  INTEGER,
    product_id   INTEGER,
    order_id     TEXT,
    order_date   DATE,
    total_amount REAL
);
INSERT INTO dim_customer VALUES (1, 'Alice'), (2, 'Bob');
INSERT INTO dim_product VALUES (10, 'Milk'), (11, 'Bread'), (12, 'Eggs');
INSERT INTO fact_sales VALUES
    (1, 10, 'O-1', '2024-01-05', 12.50),
    (1, 11, 'O-1', '2024-01-05', 3.00),
    (1, 12, 'O-2', '2024-02-10', 7.25),
    (2, 10, 'O-3', '2024-02-11 09:30:00', NULL);
`

func openTestDB(t *testing.T) (*sql.DB, Dialect) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consumer360.db")
	db, d, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, d
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(seedSchema)
	require.NoError(t, err)
}
