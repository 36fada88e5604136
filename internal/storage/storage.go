// Package storage provides the key-value persistence surface the game
// stores write their serialized snapshots through.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists under a key.
var ErrNotFound = errors.New("storage: key not found")

type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
