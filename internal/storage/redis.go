// Package storage は Redis 上に JSON レコードを保存するドキュメントストアを提供します。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound はレコードが存在しない場合に返されます。
var ErrNotFound = errors.New("storage: record not found")

const maxUpdateRetries = 10

// NewClient は URL から Redis クライアントを作成し、疎通を確認します。
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage: parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return client, nil
}

// Collection は prefix 単位で T を JSON として保存します。
// レコードは "<prefix>:<id>"、ID一覧は "index:<prefix>" のセットに保持します。
type Collection[T any] struct {
	rdb    *redis.Client
	prefix string
}

// NewCollection は Collection を作成します。
func NewCollection[T any](rdb *redis.Client, prefix string) *Collection[T] {
	return &Collection[T]{rdb: rdb, prefix: prefix}
}

// Get はレコードを取得します。
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", c.key(id), err)
	}
	return &record, nil
}

// Put はレコードを保存します（存在しない場合は作成）。
func (c *Collection[T]) Put(ctx context.Context, id string, record *T) error {
	if id == "" {
		return fmt.Errorf("storage: id is required")
	}
	if record == nil {
		return fmt.Errorf("storage: record is nil")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, c.key(id), payload, 0)
	pipe.SAdd(ctx, c.indexKey(), id)
	_, err = pipe.Exec(ctx)
	return err
}

// Update は WATCH による楽観ロックで部分更新します。競合時は再試行します。
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	key := c.key(id)
	var updated T

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("storage: decode %s: %w", key, err)
		}
		if err := mutate(&record); err != nil {
			return err
		}
		payload, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			updated = record
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("storage: update %s: too many concurrent modifications", key)
}

// Delete はレコードを削除します。
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	pipe := c.rdb.TxPipeline()
	del := pipe.Del(ctx, c.key(id))
	pipe.SRem(ctx, c.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// List は全レコードを ID 順で返します。
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	ids, err := c.rdb.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []T{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// インデックスだけ残っている場合は読み飛ばす
			continue
		}
		var record T
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("storage: decode %s: %w", keys[i], err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *Collection[T]) key(id string) string {
	return c.prefix + ":" + id
}

func (c *Collection[T]) indexKey() string {
	return "index:" + c.prefix
}
