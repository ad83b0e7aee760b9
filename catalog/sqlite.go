package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is a Catalog stored in a single SQLite file. It is used for local
// runs and in tests.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (or creates) the database at path and creates the tables.
func OpenSQLite(path string) (*SQLite, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; also keeps an in-memory database on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLite{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS photo (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		camera      TEXT NOT NULL,
		description TEXT,
		earth_date  TEXT NOT NULL,
		sol         INTEGER CHECK (sol >= 0),
		path        TEXT NOT NULL,
		title       TEXT NOT NULL,
		mime_type   TEXT NOT NULL,
		source_url  TEXT NOT NULL UNIQUE,
		exif        TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_photo_earth_date ON photo(earth_date DESC, id DESC);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_photo_path ON photo(path);

	CREATE TABLE IF NOT EXISTS ingest_state (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		last_run INTEGER NOT NULL
	);
	`
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func sqlitePlaceholder(int) string { return "?" }

func sqliteDate(d Date) any { return d.String() }

func sqliteExif(m map[string]string) (any, error) {
	b, err := encodeExif(m)
	if err != nil || b == nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SQLite) Insert(ctx context.Context, p *Photo) error {
	if p.ID != 0 {
		return &ValidationError{Field: "imageId", Msg: "not a new photo"}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	exif, err := sqliteExif(p.Exif)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO photo (camera, description, earth_date, sol, path, title, mime_type, source_url, exif)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Camera, p.Description, p.EarthDate.String(), p.Sol, p.Path, p.Title, p.MimeType, p.SourceURL, exif,
	)
	if err != nil {
		return sqliteWriteError("insert photo", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	p.ID = int(id)
	return nil
}

func (s *SQLite) Update(ctx context.Context, p *Photo) error {
	if p.ID <= 0 {
		return &ValidationError{Field: "imageId", Msg: "must be positive"}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	exif, err := sqliteExif(p.Exif)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE photo
		SET camera = ?, description = ?, earth_date = ?, sol = ?, path = ?, title = ?, mime_type = ?, source_url = ?, exif = ?
		WHERE id = ?`,
		p.Camera, p.Description, p.EarthDate.String(), p.Sol, p.Path, p.Title, p.MimeType, p.SourceURL, exif, p.ID,
	)
	if err != nil {
		return sqliteWriteError("update photo", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{What: "photo", ID: p.ID}
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM photo WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{What: "photo", ID: id}
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id int) (*Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanSQLitePhoto(s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photo WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{What: "photo", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

func (s *SQLite) HasSourceURL(ctx context.Context, sourceURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM photo WHERE source_url = ?)`, sourceURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup source url: %w", err)
	}
	return exists, nil
}

func (s *SQLite) HasPath(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM photo WHERE path = ?)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup media path: %w", err)
	}
	return exists, nil
}

func (s *SQLite) Find(ctx context.Context, f Filter) ([]Photo, error) {
	where, args := f.whereClause(sqlitePlaceholder, sqliteDate)
	return s.queryPhotos(ctx, `SELECT `+photoColumns+` FROM photo`+where+` ORDER BY id`, args...)
}

func (s *SQLite) Recent(ctx context.Context, n int) ([]Photo, error) {
	return s.queryPhotos(ctx, `SELECT `+photoColumns+` FROM photo ORDER BY earth_date DESC, id DESC LIMIT ?`, n)
}

func (s *SQLite) Random(ctx context.Context) (*Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanSQLitePhoto(s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photo ORDER BY random() LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{What: "photo"}
	}
	if err != nil {
		return nil, fmt.Errorf("random photo: %w", err)
	}
	return p, nil
}

// LastRun returns the zero time when ingestion never ran.
func (s *SQLite) LastRun(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var unix int64
	err := s.db.QueryRowContext(ctx, `SELECT last_run FROM ingest_state WHERE id = 1`).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last run: %w", err)
	}
	return time.Unix(unix, 0), nil
}

func (s *SQLite) SetLastRun(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_state (id, last_run) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_run = excluded.last_run`,
		t.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write last run: %w", err)
	}
	return nil
}

func (s *SQLite) queryPhotos(ctx context.Context, query string, args ...any) ([]Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanSQLitePhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	return photos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePhoto(row rowScanner) (*Photo, error) {
	var p Photo
	var earthDate string
	var description, exif sql.NullString
	var sol sql.NullInt64
	err := row.Scan(
		&p.ID,
		&p.Camera,
		&description,
		&earthDate,
		&sol,
		&p.Path,
		&p.Title,
		&p.MimeType,
		&p.SourceURL,
		&exif,
	)
	if err != nil {
		return nil, err
	}

	if p.EarthDate, err = ParseDate(earthDate); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if sol.Valid {
		v := int(sol.Int64)
		p.Sol = &v
	}
	if exif.Valid {
		if p.Exif, err = decodeExif([]byte(exif.String)); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func sqliteWriteError(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ Catalog = (*SQLite)(nil)
	_ Catalog = (*Postgres)(nil)
)
