package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
	_ "modernc.org/sqlite"
)

const SchemaVersion = "1"

// SQLite persists the cells in a database file.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sheets (
			name TEXT PRIMARY KEY COLLATE NOCASE,
			ord INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cells (
			sheet TEXT NOT NULL COLLATE NOCASE,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			formula TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT 'blank',
			value TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (sheet, line, col)
		);
		CREATE TABLE IF NOT EXISTS spills (
			sheet TEXT NOT NULL COLLATE NOCASE,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			cols INTEGER NOT NULL,
			PRIMARY KEY (sheet, line, col)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLite{db: db}
	version, err := s.metadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		err = s.setMetadata("schema_version", SchemaVersion)
	case SchemaVersion:
	default:
		err = fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Metadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata(key)
}

func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadata(key, value)
}

func (s *SQLite) metadata(key string) (string, error) {
	var str string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&str)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return str, err
}

func (s *SQLite) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *SQLite) Sheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT name FROM sheets ORDER BY ord")
	if err != nil {
		return nil
	}
	defer rows.Close()
	var list []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil
		}
		list = append(list, name)
	}
	return list
}

func (s *SQLite) HasSheet(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, _ := s.hasSheet(name)
	return ok
}

func (s *SQLite) hasSheet(name string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sheets WHERE name = ?", name).Scan(&n)
	return n > 0, err
}

func (s *SQLite) checkSheet(name string) error {
	ok, err := s.hasSheet(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSheet, name)
	}
	return nil
}

func (s *SQLite) AddSheet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.hasSheet(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	_, err = s.db.Exec(`
		INSERT INTO sheets (name, ord) VALUES (?, (SELECT COALESCE(MAX(ord), 0) + 1 FROM sheets))
	`, name)
	return err
}

func (s *SQLite) RenameSheet(old, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(old); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("UPDATE sheets SET name = ? WHERE name = ?", name, old); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE cells SET sheet = ? WHERE sheet = ?", name, old); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE spills SET sheet = ? WHERE sheet = ?", name, old); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Formula(pos layout.Position) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var str string
	err := s.db.QueryRow("SELECT formula FROM cells WHERE sheet = ? AND line = ? AND col = ?", pos.Sheet, pos.Line, pos.Column).Scan(&str)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return str, err
}

func (s *SQLite) SetFormula(pos layout.Position, formula string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(pos.Sheet); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO cells (sheet, line, col, formula) VALUES (?, ?, ?, ?)
		ON CONFLICT(sheet, line, col) DO UPDATE SET formula = excluded.formula
	`, pos.Sheet, pos.Line, pos.Column, formula)
	return err
}

func (s *SQLite) Value(pos layout.Position) (value.ScalarValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kind, str string
	err := s.db.QueryRow("SELECT kind, value FROM cells WHERE sheet = ? AND line = ? AND col = ?", pos.Sheet, pos.Line, pos.Column).Scan(&kind, &str)
	if err == sql.ErrNoRows {
		return value.Blank{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(kind, str)
}

func (s *SQLite) SetValue(pos layout.Position, v value.ScalarValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(pos.Sheet); err != nil {
		return err
	}
	kind, str := encode(v)
	_, err := s.db.Exec(`
		INSERT INTO cells (sheet, line, col, kind, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sheet, line, col) DO UPDATE SET kind = excluded.kind, value = excluded.value
	`, pos.Sheet, pos.Line, pos.Column, kind, str)
	return err
}

func (s *SQLite) Clear(pos layout.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM cells WHERE sheet = ? AND line = ? AND col = ?", pos.Sheet, pos.Line, pos.Column)
	return err
}

func (s *SQLite) Cells(name string) ([]layout.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(name); err != nil {
		return nil, err
	}
	return s.cells(s.db, name)
}

func (s *SQLite) SetSpill(area layout.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(area.Sheet()); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO spills (sheet, line, col, lines, cols) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sheet, line, col) DO UPDATE SET lines = excluded.lines, cols = excluded.cols
	`, area.Sheet(), area.Starts.Line, area.Starts.Column, area.Height(), area.Width())
	return err
}

func (s *SQLite) ClearSpill(anchor layout.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM spills WHERE sheet = ? AND line = ? AND col = ?", anchor.Sheet, anchor.Line, anchor.Column)
	return err
}

func (s *SQLite) Spills(name string) ([]layout.Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(name); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT sheet, line, col, lines, cols FROM spills WHERE sheet = ? ORDER BY line, col", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []layout.Range
	for rows.Next() {
		var (
			anchor layout.Position
			dim    layout.Dimension
		)
		if err := rows.Scan(&anchor.Sheet, &anchor.Line, &anchor.Column, &dim.Lines, &dim.Columns); err != nil {
			return nil, err
		}
		list = append(list, layout.NewRange(anchor, anchor.Move(dim.Lines-1, dim.Columns-1)))
	}
	return list, rows.Err()
}

type querier interface {
	Query(string, ...any) (*sql.Rows, error)
}

func (s *SQLite) cells(q querier, name string) ([]layout.Position, error) {
	rows, err := q.Query("SELECT sheet, line, col FROM cells WHERE sheet = ? ORDER BY line, col", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []layout.Position
	for rows.Next() {
		var pos layout.Position
		if err := rows.Scan(&pos.Sheet, &pos.Line, &pos.Column); err != nil {
			return nil, err
		}
		list = append(list, pos)
	}
	return list, rows.Err()
}

// Shift moves the cells of a sheet in one transaction. Moved cells are
// first parked on negative lines so that the primary key never collides.
// Recorded spills of the sheet are dropped.
func (s *SQLite) Shift(shift layout.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSheet(shift.Sheet); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM spills WHERE sheet = ?", shift.Sheet); err != nil {
		return err
	}
	list, err := s.cells(tx, shift.Sheet)
	if err != nil {
		return err
	}
	moved, dropped := moveCells(list, shift)
	for _, p := range dropped {
		_, err := tx.Exec("DELETE FROM cells WHERE sheet = ? AND line = ? AND col = ?", p.Sheet, p.Line, p.Column)
		if err != nil {
			return err
		}
	}
	for p, next := range moved {
		_, err := tx.Exec("UPDATE cells SET line = ?, col = ? WHERE sheet = ? AND line = ? AND col = ?", -next.Line, next.Column, p.Sheet, p.Line, p.Column)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec("UPDATE cells SET line = -line WHERE sheet = ? AND line < 0", shift.Sheet); err != nil {
		return err
	}
	return tx.Commit()
}
