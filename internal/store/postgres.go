package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"venuetour/internal/model"
)

// Postgres persists routes in a single table. Stops and the shared-with
// list ride along as jsonb; the engine never queries inside them.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// MigrateDir applies pending goose migrations from dir. Dev helper; in
// production migrations run out of band.
func (p *Postgres) MigrateDir(dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(p.db, dir)
}

func (p *Postgres) Save(ctx context.Context, r model.Route) error {
	stops, shared, err := encodeRoute(r)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO routes (id, owner_id, name, state, version, stops, geometry, shared_with, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, state=EXCLUDED.state, version=EXCLUDED.version,
			stops=EXCLUDED.stops, geometry=EXCLUDED.geometry,
			shared_with=EXCLUDED.shared_with, updated_at=EXCLUDED.updated_at`,
		r.ID, r.OwnerID, r.Name, r.State, r.Version, stops, r.Geometry, shared, r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *Postgres) Get(ctx context.Context, id string) (model.Route, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, state, version, stops, geometry, shared_with, created_at, updated_at
		FROM routes WHERE id=$1`, id)
	return scanRoute(row)
}

func (p *Postgres) Update(ctx context.Context, r model.Route) error {
	stops, shared, err := encodeRoute(r)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE routes SET name=$2, state=$3, version=$4, stops=$5, geometry=$6, shared_with=$7, updated_at=$8
		WHERE id=$1`,
		r.ID, r.Name, r.State, r.Version, stops, r.Geometry, shared, r.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM routes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Share(ctx context.Context, id, recipientID string) (model.Route, error) {
	r, err := p.Get(ctx, id)
	if err != nil {
		return model.Route{}, err
	}
	for _, u := range r.SharedWith {
		if u == recipientID {
			return r, nil
		}
	}
	r.SharedWith = append(r.SharedWith, recipientID)
	if err := p.Update(ctx, r); err != nil {
		return model.Route{}, err
	}
	return r, nil
}

func (p *Postgres) ListOwned(ctx context.Context, ownerID string) ([]model.Route, error) {
	return p.list(ctx, `
		SELECT id, owner_id, name, state, version, stops, geometry, shared_with, created_at, updated_at
		FROM routes WHERE owner_id=$1 ORDER BY created_at DESC, id`, ownerID)
}

func (p *Postgres) ListSharedWith(ctx context.Context, userID string) ([]model.Route, error) {
	return p.list(ctx, `
		SELECT id, owner_id, name, state, version, stops, geometry, shared_with, created_at, updated_at
		FROM routes WHERE shared_with ? $1 ORDER BY created_at DESC, id`, userID)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) list(ctx context.Context, query string, arg any) ([]model.Route, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func encodeRoute(r model.Route) (stops, shared []byte, err error) {
	if stops, err = json.Marshal(r.Stops); err != nil {
		return nil, nil, err
	}
	if r.SharedWith == nil {
		r.SharedWith = []string{}
	}
	if shared, err = json.Marshal(r.SharedWith); err != nil {
		return nil, nil, err
	}
	return stops, shared, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (model.Route, error) {
	var r model.Route
	var stops, shared []byte
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.State, &r.Version, &stops, &r.Geometry, &shared, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Route{}, ErrNotFound
	}
	if err != nil {
		return model.Route{}, err
	}
	if err := json.Unmarshal(stops, &r.Stops); err != nil {
		return model.Route{}, err
	}
	if err := json.Unmarshal(shared, &r.SharedWith); err != nil {
		return model.Route{}, err
	}
	return r, nil
}
