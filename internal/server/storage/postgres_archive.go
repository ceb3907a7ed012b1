package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	room_id       VARCHAR(10) PRIMARY KEY,
	master_id     VARCHAR(255) NOT NULL,
	status        VARCHAR(20) DEFAULT 'waiting',
	wines         JSONB NOT NULL,
	participants  JSONB DEFAULT '[]',
	current_round INTEGER DEFAULT 0,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	finished_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS game_rounds (
	id         SERIAL PRIMARY KEY,
	room_id    VARCHAR(10) REFERENCES rooms(room_id),
	round_num  INTEGER NOT NULL,
	wine_ids   INTEGER[] NOT NULL,
	start_time TIMESTAMP,
	end_time   TIMESTAMP,
	selections JSONB DEFAULT '{}'
);
`

// ArchivedRound 已结束回合的归档记录
type ArchivedRound struct {
	RoomID     string
	RoundNum   int
	WineIDs    []int
	StartTime  time.Time
	EndTime    time.Time
	Selections []ChoiceData
}

// PostgresArchive 将房间与已结束回合归档到 PostgreSQL
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive 连接 PostgreSQL
func NewPostgresArchive(ctx context.Context, connString string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

// Init 建表
func (pa *PostgresArchive) Init(ctx context.Context) error {
	if _, err := pa.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Ping 检查连接
func (pa *PostgresArchive) Ping(ctx context.Context) error {
	return pa.pool.Ping(ctx)
}

// Close 关闭连接池
func (pa *PostgresArchive) Close() {
	pa.pool.Close()
}

// ArchiveRound 写入房间当前快照并追加一条回合记录
func (pa *PostgresArchive) ArchiveRound(ctx context.Context, room *RoomData, round *ArchivedRound) error {
	wines, err := json.Marshal(room.Wines)
	if err != nil {
		return fmt.Errorf("serialize wines: %w", err)
	}
	participants, err := json.Marshal(room.Participants)
	if err != nil {
		return fmt.Errorf("serialize participants: %w", err)
	}
	selections, err := json.Marshal(round.Selections)
	if err != nil {
		return fmt.Errorf("serialize selections: %w", err)
	}

	var finishedAt *time.Time
	if room.FinishedAt != 0 {
		t := time.Unix(room.FinishedAt, 0).UTC()
		finishedAt = &t
	}

	tx, err := pa.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO rooms (room_id, master_id, status, wines, participants, current_round, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id) DO UPDATE SET
			master_id = EXCLUDED.master_id,
			status = EXCLUDED.status,
			participants = EXCLUDED.participants,
			current_round = EXCLUDED.current_round,
			finished_at = EXCLUDED.finished_at`,
		room.RoomID, room.MasterID, room.Status, wines, participants, room.CurrentRound,
		time.Unix(room.CreatedAt, 0).UTC(), finishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", room.RoomID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO game_rounds (room_id, round_num, wine_ids, start_time, end_time, selections)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		round.RoomID, round.RoundNum, round.WineIDs, round.StartTime.UTC(), round.EndTime.UTC(), selections,
	)
	if err != nil {
		return fmt.Errorf("insert round %d of %s: %w", round.RoundNum, round.RoomID, err)
	}

	return tx.Commit(ctx)
}

// CountRounds 房间已归档的回合数
func (pa *PostgresArchive) CountRounds(ctx context.Context, roomID string) (int, error) {
	var n int
	err := pa.pool.QueryRow(ctx, "SELECT COUNT(*) FROM game_rounds WHERE room_id = $1", roomID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rounds of %s: %w", roomID, err)
	}
	return n, nil
}

// RoomStatus 已归档房间的状态
func (pa *PostgresArchive) RoomStatus(ctx context.Context, roomID string) (string, int, error) {
	var status string
	var round int
	err := pa.pool.QueryRow(ctx, "SELECT status, current_round FROM rooms WHERE room_id = $1", roomID).Scan(&status, &round)
	if err != nil {
		return "", 0, fmt.Errorf("load room %s: %w", roomID, err)
	}
	return status, round, nil
}
