package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
type RoomData struct {
	RoomID       string        `json:"room_id"`
	MasterID     string        `json:"master_id"`
	Status       string        `json:"status"`
	Wines        []WineData    `json:"wines"`
	Participants []PlayerData  `json:"participants"`
	CurrentRound int           `json:"current_round"`
	CreatedAt    int64         `json:"created_at"`
	FinishedAt   int64         `json:"finished_at,omitempty"`
	History      []RoundRecord `json:"history,omitempty"`
}

// WineData 酒款数据
type WineData struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

// RoundRecord 已结束回合的选择记录
type RoundRecord struct {
	RoundNum   int          `json:"round_num"`
	Selections []ChoiceData `json:"selections"`
	EndedAt    int64        `json:"ended_at"`
}

// ChoiceData 单个玩家在某回合的选择
type ChoiceData struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	WineID   int    `json:"wine_id"`
	WineName string `json:"wine_name"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("serialize room %s: %w", roomID, err)
	}

	key := roomKeyPrefix + roomID
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间（仅返回数据，需要外部重建）
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomData, error) {
	key := roomKeyPrefix + roomID
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("deserialize room %s: %w", roomID, err)
	}

	return &roomData, nil
}

// GetAllRoomIDs 获取所有房间号
func (rs *RedisStore) GetAllRoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
