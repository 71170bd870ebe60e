// Package store provides the SQLite-backed category catalog.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is a catalog.Catalog persisted in SQLite.
type Store struct {
	db    *sql.DB
	newID catalog.IDGenerator
}

var _ catalog.Catalog = (*Store)(nil)

// Open opens or creates the catalog database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}
	// One writer keeps last-write-wins ordering and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging catalog db: %w", err)
	}

	slog.Debug("catalog opened", "path", dbPath)
	return &Store{db: db, newID: catalog.NewID}, nil
}

// SetIDGenerator replaces the UUID generator.
func (s *Store) SetIDGenerator(gen catalog.IDGenerator) { s.newID = gen }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const categoryColumns = `id, name, type, priority, amount, due_date, selected`

const subcategoryColumns = `id, category_id, name, priority, amount, allocation_percentage, selected`

func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cats []model.Category
	index := make(map[string]int)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(cats)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load subcategories
	subRows, err := s.db.QueryContext(ctx, `SELECT `+subcategoryColumns+` FROM subcategories ORDER BY category_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer func() { _ = subRows.Close() }()

	for subRows.Next() {
		sub, err := scanSubcategory(subRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[sub.CategoryID]; ok {
			cats[i].Subcategories = append(cats[i].Subcategories, sub)
		}
	}
	return cats, subRows.Err()
}

func (s *Store) Category(ctx context.Context, id string) (model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, fmt.Errorf("category %s: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return model.Category{}, err
	}

	subs, err := s.subcategories(ctx, s.db, id)
	if err != nil {
		return model.Category{}, err
	}
	c.Subcategories = subs
	return c, nil
}

func (s *Store) AddCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if err := catalog.Validate(c); err != nil {
		return model.Category{}, err
	}
	c = c.Clone()
	if c.ID == "" {
		c.ID = s.newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Category{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := nameFree(ctx, tx, c.Name, ""); err != nil {
		return model.Category{}, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO categories
		(id, position, name, type, priority, amount, due_date, selected)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM categories), ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), c.Priority, nullFloat(c.Amount), nullTime(c.DueDate), boolInt(c.Selected),
	)
	if err != nil {
		return model.Category{}, fmt.Errorf("inserting category %s: %w", c.Name, err)
	}

	for i := range c.Subcategories {
		sub := &c.Subcategories[i]
		if sub.ID == "" {
			sub.ID = s.newID()
		}
		sub.CategoryID = c.ID
		if err := insertSubcategory(ctx, tx, *sub); err != nil {
			return model.Category{}, err
		}
	}
	if err := syncAmount(ctx, tx, c.ID); err != nil {
		return model.Category{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Category{}, err
	}
	catalog.SyncAmount(&c)
	return c, nil
}

func (s *Store) DeleteCategoryAt(ctx context.Context, position int) (model.Category, error) {
	if position < 0 {
		return model.Category{}, fmt.Errorf("position %d: %w", position, catalog.ErrInvalidPosition)
	}
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories ORDER BY position LIMIT 1 OFFSET ?`, position).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, fmt.Errorf("position %d: %w", position, catalog.ErrInvalidPosition)
	}
	if err != nil {
		return model.Category{}, err
	}
	return s.DeleteCategory(ctx, id)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) (model.Category, error) {
	c, err := s.Category(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	// Subcategories go with it via ON DELETE CASCADE.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return model.Category{}, fmt.Errorf("deleting category %s: %w", id, err)
	}
	slog.Debug("category deleted", "id", id, "name", c.Name, "subcategories", len(c.Subcategories))
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c model.Category) error {
	if err := catalog.Validate(model.Category{Name: c.Name, Type: c.Type, Amount: c.Amount}); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := nameFree(ctx, tx, c.Name, c.ID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE categories
		SET name = ?, type = ?, priority = ?, amount = ?, due_date = ?, selected = ?
		WHERE id = ?`,
		c.Name, string(c.Type), c.Priority, nullFloat(c.Amount), nullTime(c.DueDate), boolInt(c.Selected), c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating category %s: %w", c.ID, err)
	}
	if err := requireRow(res, "category", c.ID); err != nil {
		return err
	}
	if err := syncAmount(ctx, tx, c.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddSubcategory(ctx context.Context, categoryID string, sub model.Subcategory) (model.Subcategory, error) {
	if err := catalog.ValidateSubcategory(sub); err != nil {
		return model.Subcategory{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Subcategory{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		name string
		pct  float64
	)
	err = tx.QueryRowContext(ctx, `SELECT name,
		(SELECT COALESCE(SUM(allocation_percentage), 0.0) FROM subcategories WHERE category_id = categories.id)
		FROM categories WHERE id = ?`, categoryID).Scan(&name, &pct)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subcategory{}, fmt.Errorf("category %s: %w", categoryID, catalog.ErrNotFound)
	}
	if err != nil {
		return model.Subcategory{}, err
	}
	if err := catalog.ValidatePercentageTotal(name, pct+sub.AllocationPercentage); err != nil {
		return model.Subcategory{}, err
	}

	if sub.ID == "" {
		sub.ID = s.newID()
	}
	sub.CategoryID = categoryID
	if err := insertSubcategory(ctx, tx, sub); err != nil {
		return model.Subcategory{}, err
	}
	if err := syncAmount(ctx, tx, categoryID); err != nil {
		return model.Subcategory{}, err
	}
	return sub, tx.Commit()
}

func (s *Store) RemoveSubcategory(ctx context.Context, id string) (model.Subcategory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subcategoryColumns+` FROM subcategories WHERE id = ?`, id)
	sub, err := scanSubcategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subcategory{}, fmt.Errorf("subcategory %s: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return model.Subcategory{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subcategories WHERE id = ?`, id); err != nil {
		return model.Subcategory{}, fmt.Errorf("deleting subcategory %s: %w", id, err)
	}
	if err := syncAmount(ctx, s.db, sub.CategoryID); err != nil {
		return model.Subcategory{}, err
	}
	return sub, nil
}

func (s *Store) UpdateAmount(ctx context.Context, id string, amount *float64) error {
	if amount != nil && *amount < 0 {
		return fmt.Errorf("amount %.2f: must not be negative", *amount)
	}
	var name, typ string
	err := s.db.QueryRowContext(ctx, `SELECT name, type FROM categories WHERE id = ?`, id).Scan(&name, &typ)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil && catalog.DerivesAmount(model.CategoryType(typ)) {
		return fmt.Errorf("category %q: %w", name, catalog.ErrDerivedAmount)
	}
	return s.updateEither(ctx, id, "amount", nullFloat(amount))
}

func (s *Store) UpdateDueDate(ctx context.Context, categoryID string, due *time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET due_date = ? WHERE id = ?`, nullTime(due), categoryID)
	if err != nil {
		return fmt.Errorf("updating due date: %w", err)
	}
	return requireRow(res, "category", categoryID)
}

func (s *Store) SetSelected(ctx context.Context, id string, selected bool) error {
	return s.updateEither(ctx, id, "selected", boolInt(selected))
}

// updateEither sets column on the category or subcategory with id. column is
// always a constant from this file. A changed subcategory has its amount
// written back to the parent.
func (s *Store) updateEither(ctx context.Context, id, column string, value any) error {
	for _, table := range []string{"categories", "subcategories"} {
		res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET `+column+` = ? WHERE id = ?`, value, id) //nolint:gosec // table and column are constants
		if err != nil {
			return fmt.Errorf("updating %s.%s: %w", table, column, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if table == "subcategories" {
				return syncAmount(ctx, s.db, id)
			}
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", id, catalog.ErrNotFound)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// syncAmount writes the sum of a need or want category's selected
// subcategory amounts back to its amount column. ref is the category's ID or
// the ID of one of its subcategories. SUM over no amounts leaves NULL.
func syncAmount(ctx context.Context, db execer, ref string) error {
	_, err := db.ExecContext(ctx, `UPDATE categories SET amount = (
			SELECT SUM(amount) FROM subcategories
			WHERE category_id = categories.id AND selected = 1)
		WHERE type IN (?, ?)
		AND id IN (?, (SELECT category_id FROM subcategories WHERE id = ?))`,
		string(model.Need), string(model.Want), ref, ref,
	)
	if err != nil {
		return fmt.Errorf("syncing amount for %s: %w", ref, err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) subcategories(ctx context.Context, q queryer, categoryID string) ([]model.Subcategory, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+subcategoryColumns+` FROM subcategories
		WHERE category_id = ? ORDER BY position`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subcategory
	for rows.Next() {
		sub, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func insertSubcategory(ctx context.Context, tx *sql.Tx, sub model.Subcategory) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO subcategories
		(id, category_id, position, name, priority, amount, allocation_percentage, selected)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM subcategories WHERE category_id = ?), ?, ?, ?, ?, ?)`,
		sub.ID, sub.CategoryID, sub.CategoryID, sub.Name, sub.Priority, nullFloat(sub.Amount),
		sub.AllocationPercentage, boolInt(sub.Selected),
	)
	if err != nil {
		return fmt.Errorf("inserting subcategory %s: %w", sub.Name, err)
	}
	return nil
}

func nameFree(ctx context.Context, tx *sql.Tx, name, exceptID string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE lower(trim(name)) = lower(trim(?)) AND id != ?`, name, exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("category %q: %w", name, catalog.ErrDuplicateName)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, catalog.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (model.Category, error) {
	var c model.Category
	var typ string
	var amount sql.NullFloat64
	var due sql.NullString
	var selected int

	if err := row.Scan(&c.ID, &c.Name, &typ, &c.Priority, &amount, &due, &selected); err != nil {
		return model.Category{}, err
	}
	c.Type = model.CategoryType(typ)
	c.Selected = selected != 0
	if amount.Valid {
		c.Amount = model.Float(amount.Float64)
	}
	if due.Valid && due.String != "" {
		t, err := time.Parse(time.RFC3339, due.String)
		if err != nil {
			return model.Category{}, fmt.Errorf("category %s: parsing due date: %w", c.ID, err)
		}
		c.DueDate = &t
	}
	return c, nil
}

func scanSubcategory(row scanner) (model.Subcategory, error) {
	var sub model.Subcategory
	var amount sql.NullFloat64
	var selected int

	if err := row.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Priority, &amount,
		&sub.AllocationPercentage, &selected); err != nil {
		return model.Subcategory{}, err
	}
	sub.Selected = selected != 0
	if amount.Valid {
		sub.Amount = model.Float(amount.Float64)
	}
	return sub, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
