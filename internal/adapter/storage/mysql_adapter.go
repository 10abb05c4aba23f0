package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

// MySQLAdapter implements port.Store on MySQL. Commit-path reads use
// FOR UPDATE so concurrent commits into the same bay serialize, and
// location writes are guarded by a version column.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const locationColumns = `code, row_code, bay, level, slot, max_weight, current_weight, status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*domain.Location, error) {
	var loc domain.Location
	err := row.Scan(&loc.Code, &loc.Row, &loc.Bay, &loc.Level, &loc.Slot,
		&loc.MaxWeight, &loc.CurrentWeight, &loc.Status, &loc.Version,
		&loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (m *MySQLAdapter) ListLocations(ctx context.Context, filter port.LocationFilter) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Row != "" {
		conds = append(conds, "row_code = ?")
		args = append(args, filter.Row)
	}
	if filter.Bay != "" {
		conds = append(conds, "bay = ?")
		args = append(args, filter.Bay)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY code"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

func (m *MySQLAdapter) GetLocationByCode(ctx context.Context, code string) (*domain.Location, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE code = ?`, code)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query location: %w", err)
	}
	return loc, nil
}

func (m *MySQLAdapter) CreateLocations(ctx context.Context, locations []domain.Location) error {
	if len(locations) == 0 {
		return nil
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, loc := range locations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO locations (code, row_code, bay, level, slot, max_weight, current_weight, status, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			loc.Code, loc.Row, loc.Bay, loc.Level, loc.Slot,
			loc.MaxWeight, loc.CurrentWeight, loc.Status, loc.CreatedAt, loc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert location %s: %w", loc.Code, err)
		}
	}
	return tx.Commit()
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getItem(ctx context.Context, q rowQuerier, id string, forUpdate bool) (*domain.Item, error) {
	query := `
		SELECT id, reference_code, system_code, description, weight, category, location_code, status, updated_at
		FROM items WHERE id = ?`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var item domain.Item
	var location sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.ReferenceCode, &item.SystemCode, &item.Description,
		&item.Weight, &item.Category, &location, &item.Status, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	item.Location = location.String
	return &item, nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return getItem(ctx, m.db, id, false)
}

func (m *MySQLAdapter) ListItems(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error) {
	query := `
		SELECT id, reference_code, system_code, description, weight, category, location_code, status, updated_at
		FROM items`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		var location sql.NullString
		if err := rows.Scan(&item.ID, &item.ReferenceCode, &item.SystemCode, &item.Description,
			&item.Weight, &item.Category, &location, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Location = location.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (id, reference_code, system_code, description, weight, category, location_code, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		item.ID, item.ReferenceCode, item.SystemCode, item.Description,
		item.Weight, item.Category, item.Status, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func (m *MySQLAdapter) ListMovements(ctx context.Context, direction domain.Direction) ([]domain.Movement, error) {
	query := `
		SELECT id, item_id, item_reference, direction, weight, location_code, operator, notes, ts
		FROM movements`
	var args []any
	if direction != "" {
		query += " WHERE direction = ?"
		args = append(args, direction)
	}
	query += " ORDER BY ts DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		var mv domain.Movement
		if err := rows.Scan(&mv.ID, &mv.ItemID, &mv.ItemReference, &mv.Direction,
			&mv.Weight, &mv.LocationCode, &mv.Operator, &mv.Notes, &mv.Timestamp); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func (m *MySQLAdapter) CountMovementsSince(ctx context.Context, direction domain.Direction, since time.Time) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movements WHERE direction = ? AND ts >= ?`,
		direction, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}

func (m *MySQLAdapter) InTransaction(ctx context.Context, fn func(tx port.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) LockLocationByCode(ctx context.Context, code string) (*domain.Location, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE code = ? FOR UPDATE`, code)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock location: %w", err)
	}
	return loc, nil
}

func (t *mysqlTx) LockBayLocations(ctx context.Context, row, bay string) ([]domain.Location, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE row_code = ? AND bay = ? ORDER BY code FOR UPDATE`,
		row, bay)
	if err != nil {
		return nil, fmt.Errorf("lock bay: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

func (t *mysqlTx) ConditionalUpdateLocation(ctx context.Context, code string, expectedVersion int64, update port.LocationWeightUpdate) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE locations
		SET current_weight = ?, status = ?, version = version + 1, updated_at = NOW()
		WHERE code = ? AND version = ?`,
		update.CurrentWeight, update.Status, code, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: location %s changed since read", domain.ErrConflict, code)
	}
	return nil
}

func (t *mysqlTx) RepairLocation(ctx context.Context, code string, repair port.LocationRepair) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE locations
		SET max_weight = ?, current_weight = ?, status = ?, updated_at = NOW()
		WHERE code = ?`,
		repair.MaxWeight, repair.CurrentWeight, repair.Status, code,
	)
	if err != nil {
		return fmt.Errorf("repair location: %w", err)
	}
	return nil
}

func (t *mysqlTx) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return getItem(ctx, t.tx, id, true)
}

func (t *mysqlTx) SetItemPlaced(ctx context.Context, id, locationCode string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE items SET status = ?, location_code = ?, updated_at = NOW() WHERE id = ?`,
		domain.ItemStatusPlaced, locationCode, id,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (t *mysqlTx) SetItemRemoved(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE items SET status = ?, location_code = NULL, updated_at = NOW() WHERE id = ?`,
		domain.ItemStatusRemoved, id,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (t *mysqlTx) AppendMovement(ctx context.Context, mv domain.Movement) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO movements (id, item_id, item_reference, direction, weight, location_code, operator, notes, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.ID, mv.ItemID, mv.ItemReference, mv.Direction, mv.Weight,
		mv.LocationCode, mv.Operator, mv.Notes, mv.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}
