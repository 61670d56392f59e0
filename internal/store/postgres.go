package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool, pings it and runs the schema migration.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL,
	host_id       TEXT NOT NULL DEFAULT '',
	is_private    BOOLEAN NOT NULL DEFAULT FALSE,
	max_players   INT NOT NULL,
	draw_time     INT NOT NULL,
	max_rounds    INT NOT NULL,
	theme         TEXT NOT NULL DEFAULT '',
	phase         TEXT NOT NULL DEFAULT 'lobby',
	player_count  INT NOT NULL DEFAULT 0,
	last_activity TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS rooms_code_idx ON rooms (code);

CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	score      INT NOT NULL DEFAULT 0,
	is_host    BOOLEAN NOT NULL DEFAULT FALSE,
	seat       INT NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS players_room_idx ON players (room_id);

CREATE TABLE IF NOT EXISTS profiles (
	user_id      TEXT PRIMARY KEY,
	games_played INT NOT NULL DEFAULT 0,
	games_won    INT NOT NULL DEFAULT 0,
	total_score  INT NOT NULL DEFAULT 0
);`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (p *Postgres) SaveRoom(ctx context.Context, room RoomRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO rooms (id, code, host_id, is_private, max_players, draw_time,
		                   max_rounds, theme, phase, player_count, last_activity, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			host_id = EXCLUDED.host_id,
			phase = EXCLUDED.phase,
			draw_time = EXCLUDED.draw_time,
			max_rounds = EXCLUDED.max_rounds,
			player_count = EXCLUDED.player_count,
			last_activity = EXCLUDED.last_activity`,
		room.Id, room.Code, room.HostId, room.IsPrivate, room.MaxPlayers, room.DrawTime,
		room.MaxRounds, room.Theme, room.Phase, room.PlayerCount, room.LastActivity, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.Id, err)
	}
	return nil
}

func (p *Postgres) DeleteRoom(ctx context.Context, roomId string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomId); err != nil {
		return fmt.Errorf("delete room %s: %w", roomId, err)
	}
	return nil
}

func (p *Postgres) RoomByCode(ctx context.Context, code string) (*RoomRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, code, host_id, is_private, max_players, draw_time,
		       max_rounds, theme, phase, player_count, last_activity, created_at
		FROM rooms WHERE code = $1`, strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("lookup room by code %s: %w", code, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	room, err := scanRoom(rows)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (p *Postgres) ListActiveRooms(ctx context.Context, since time.Time) ([]RoomRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, code, host_id, is_private, max_players, draw_time,
		       max_rounds, theme, phase, player_count, last_activity, created_at
		FROM rooms WHERE last_activity > $1`, since)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	defer rows.Close()

	var out []RoomRecord
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (p *Postgres) PruneRooms(ctx context.Context, before time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM rooms WHERE player_count = 0 AND last_activity < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune rooms: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) SavePlayer(ctx context.Context, player PlayerRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO players (id, room_id, user_id, name, avatar, score, is_host, seat, session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			is_host = EXCLUDED.is_host,
			session_id = EXCLUDED.session_id`,
		player.Id, player.RoomId, player.UserId, player.Name, player.Avatar,
		player.Score, player.IsHost, player.Seat, player.SessionId)
	if err != nil {
		return fmt.Errorf("save player %s: %w", player.Id, err)
	}
	return nil
}

func (p *Postgres) DeletePlayer(ctx context.Context, playerId string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerId); err != nil {
		return fmt.Errorf("delete player %s: %w", playerId, err)
	}
	return nil
}

func (p *Postgres) DeleteRoomPlayers(ctx context.Context, roomId string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM players WHERE room_id = $1`, roomId); err != nil {
		return fmt.Errorf("delete players of room %s: %w", roomId, err)
	}
	return nil
}

func (p *Postgres) RoomPlayers(ctx context.Context, roomId string) ([]PlayerRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, user_id, name, avatar, score, is_host, seat, session_id
		FROM players WHERE room_id = $1 ORDER BY seat`, roomId)
	if err != nil {
		return nil, fmt.Errorf("list players of room %s: %w", roomId, err)
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var pl PlayerRecord
		if err := rows.Scan(&pl.Id, &pl.RoomId, &pl.UserId, &pl.Name, &pl.Avatar,
			&pl.Score, &pl.IsHost, &pl.Seat, &pl.SessionId); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

func (p *Postgres) BumpProfile(ctx context.Context, userId string, won bool, score int) error {
	wonInc := 0
	if won {
		wonInc = 1
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, games_played, games_won, total_score)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			games_played = profiles.games_played + 1,
			games_won = profiles.games_won + $2,
			total_score = profiles.total_score + $3`,
		userId, wonInc, score)
	if err != nil {
		return fmt.Errorf("bump profile %s: %w", userId, err)
	}
	return nil
}

func (p *Postgres) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

type roomScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row roomScanner) (RoomRecord, error) {
	var room RoomRecord
	err := row.Scan(&room.Id, &room.Code, &room.HostId, &room.IsPrivate, &room.MaxPlayers,
		&room.DrawTime, &room.MaxRounds, &room.Theme, &room.Phase, &room.PlayerCount,
		&room.LastActivity, &room.CreatedAt)
	if err != nil {
		return RoomRecord{}, fmt.Errorf("scan room row: %w", err)
	}
	return room, nil
}
