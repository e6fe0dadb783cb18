package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func embeddedMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(Migrations(), embeddedDir)
	require.NoError(t, err)
	return sub
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateFS(embeddedMigrations(t)))
	require.NoError(t, ValidateEmbedded())
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsDeclareCoreConstraints(t *testing.T) {
	var all strings.Builder
	sub := embeddedMigrations(t)
	entries, err := fs.ReadDir(sub, ".")
	require.NoError(t, err)
	for _, e := range entries {
		b, err := fs.ReadFile(sub, e.Name())
		require.NoError(t, err)
		all.Write(b)
	}
	content := all.String()

	for _, want := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_buyer_product ON cart_items (buyer_id, product_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_dealer_reviews_dealer_user ON dealer_reviews (dealer_id, user_id)",
		"stock_quantity integer NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0)",
		"CHECK (rating BETWEEN 1 AND 5)",
		"CHECK (total_cents = subtotal_cents + shipping_fee_cents + tax_cents - discount_cents)",
		"CHECK (total_cents = quantity * unit_price_cents)",
		"order_id uuid NOT NULL REFERENCES orders (id) ON DELETE CASCADE",
		"ux_payments_order_succeeded",
		"DROP TABLE IF EXISTS outbox_events",
	} {
		require.Contains(t, content, want)
	}
}

func TestValidateRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestValidateRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_add_things.sql"), []byte("-- +goose Up\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Dealer Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_dealer_notes.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateSQLMigrationBumpsTakenVersion(t *testing.T) {
	dir := t.TempDir()
	first, err := CreateSQLMigration(dir, "one")
	require.NoError(t, err)
	second, err := CreateSQLMigration(dir, "two")
	require.NoError(t, err)

	v1 := filepath.Base(first)[:14]
	v2 := filepath.Base(second)[:14]
	require.NotEqual(t, v1, v2)
	require.NoError(t, ValidateDir(dir))
}
