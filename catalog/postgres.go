package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// Postgres is a Catalog backed by a pgx connection pool. All tables live in
// one schema.
type Postgres struct {
	Pool   *pgxpool.Pool
	schema string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Schema   string
	SSLMode  string
}

func (c PostgresConfig) ConnString() string {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.DBName)
	if c.SSLMode != "" {
		connStr += "?sslmode=" + c.SSLMode
	}
	return connStr
}

// OpenPostgres connects to the database and makes sure the tables exist.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	p := &Postgres{Pool: pool, schema: pq.QuoteIdentifier(schema)}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	s := p.schema
	ddl := fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %s;

CREATE TABLE IF NOT EXISTS %s.photo (
	id          SERIAL PRIMARY KEY,
	camera      VARCHAR(64)   NOT NULL,
	description VARCHAR(5000),
	earth_date  DATE          NOT NULL,
	sol         INTEGER       CHECK (sol >= 0),
	path        VARCHAR(256)  NOT NULL,
	title       VARCHAR(128)  NOT NULL,
	mime_type   VARCHAR(10)   NOT NULL,
	source_url  VARCHAR(256)  NOT NULL UNIQUE,
	exif        JSONB
);

CREATE INDEX IF NOT EXISTS photo_earth_date_idx ON %s.photo (earth_date DESC, id DESC);
CREATE UNIQUE INDEX IF NOT EXISTS photo_path_key ON %s.photo (path);

CREATE TABLE IF NOT EXISTS %s.ingest_state (
	id       SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	last_run TIMESTAMPTZ NOT NULL
);`, s, s, s, s, s)

	if _, err := p.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

func pgPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func pgDate(d Date) any { return d.Time }

func (p *Postgres) Insert(ctx context.Context, photo *Photo) error {
	if photo.ID != 0 {
		return &ValidationError{Field: "imageId", Msg: "not a new photo"}
	}
	if err := photo.Validate(); err != nil {
		return err
	}
	exif, err := encodeExif(photo.Exif)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s.photo (camera, description, earth_date, sol, path, title, mime_type, source_url, exif)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		p.schema)

	err = p.Pool.QueryRow(ctx, query,
		photo.Camera,
		photo.Description,
		photo.EarthDate.Time,
		photo.Sol,
		photo.Path,
		photo.Title,
		photo.MimeType,
		photo.SourceURL,
		exif,
	).Scan(&photo.ID)
	if err != nil {
		return pgWriteError("insert photo", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, photo *Photo) error {
	if photo.ID <= 0 {
		return &ValidationError{Field: "imageId", Msg: "must be positive"}
	}
	if err := photo.Validate(); err != nil {
		return err
	}
	exif, err := encodeExif(photo.Exif)
	if err != nil {
		return err
	}

	return WithTransaction(ctx, p.Pool, func(ctx context.Context, tx pgx.Tx) error {
		query := fmt.Sprintf(`
UPDATE %s.photo
SET camera = $1, description = $2, earth_date = $3, sol = $4, path = $5, title = $6, mime_type = $7, source_url = $8, exif = $9
WHERE id = $10`,
			p.schema)

		tag, err := tx.Exec(ctx, query,
			photo.Camera,
			photo.Description,
			photo.EarthDate.Time,
			photo.Sol,
			photo.Path,
			photo.Title,
			photo.MimeType,
			photo.SourceURL,
			exif,
			photo.ID,
		)
		if err != nil {
			return pgWriteError("update photo", err)
		}
		if tag.RowsAffected() == 0 {
			return &NotFoundError{What: "photo", ID: photo.ID}
		}
		return nil
	})
}

func (p *Postgres) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s.photo WHERE id = $1`, p.schema)
	tag, err := p.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{What: "photo", ID: id}
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id int) (*Photo, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.photo WHERE id = $1`, photoColumns, p.schema)
	photo, err := scanPgPhoto(p.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{What: "photo", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

func (p *Postgres) HasSourceURL(ctx context.Context, sourceURL string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s.photo WHERE source_url = $1)`, p.schema)
	var exists bool
	if err := p.Pool.QueryRow(ctx, query, sourceURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup source url: %w", err)
	}
	return exists, nil
}

func (p *Postgres) HasPath(ctx context.Context, path string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s.photo WHERE path = $1)`, p.schema)
	var exists bool
	if err := p.Pool.QueryRow(ctx, query, path).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup media path: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Find(ctx context.Context, f Filter) ([]Photo, error) {
	where, args := f.whereClause(pgPlaceholder, pgDate)
	query := fmt.Sprintf(`SELECT %s FROM %s.photo%s ORDER BY id`, photoColumns, p.schema, where)
	return p.queryPhotos(ctx, query, args...)
}

func (p *Postgres) Recent(ctx context.Context, n int) ([]Photo, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.photo ORDER BY earth_date DESC, id DESC LIMIT $1`, photoColumns, p.schema)
	return p.queryPhotos(ctx, query, n)
}

func (p *Postgres) Random(ctx context.Context) (*Photo, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.photo ORDER BY random() LIMIT 1`, photoColumns, p.schema)
	photo, err := scanPgPhoto(p.Pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{What: "photo"}
	}
	if err != nil {
		return nil, fmt.Errorf("random photo: %w", err)
	}
	return photo, nil
}

func (p *Postgres) LastRun(ctx context.Context) (time.Time, error) {
	query := fmt.Sprintf(`SELECT last_run FROM %s.ingest_state WHERE id = 1`, p.schema)
	var t time.Time
	err := p.Pool.QueryRow(ctx, query).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last run: %w", err)
	}
	return t, nil
}

func (p *Postgres) SetLastRun(ctx context.Context, t time.Time) error {
	query := fmt.Sprintf(`
INSERT INTO %s.ingest_state (id, last_run) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET last_run = EXCLUDED.last_run`,
		p.schema)
	if _, err := p.Pool.Exec(ctx, query, t); err != nil {
		return fmt.Errorf("write last run: %w", err)
	}
	return nil
}

func (p *Postgres) queryPhotos(ctx context.Context, query string, args ...any) ([]Photo, error) {
	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		photo, err := scanPgPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, *photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	return photos, nil
}

func scanPgPhoto(row pgx.Row) (*Photo, error) {
	var photo Photo
	var earthDate time.Time
	var exif []byte
	err := row.Scan(
		&photo.ID,
		&photo.Camera,
		&photo.Description,
		&earthDate,
		&photo.Sol,
		&photo.Path,
		&photo.Title,
		&photo.MimeType,
		&photo.SourceURL,
		&exif,
	)
	if err != nil {
		return nil, err
	}
	photo.EarthDate = DateOf(earthDate)
	if photo.Exif, err = decodeExif(exif); err != nil {
		return nil, err
	}
	return &photo, nil
}

func pgWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
