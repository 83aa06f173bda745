// Package runtime holds the storage backends shared by the server, the CLI
// and the MCP tools.
package runtime

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for keys that do not exist.
var ErrNotFound = errors.New("runtime: not found")

// Storage is a flat key/blob store. Keys use forward slashes.
type Storage interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string, delimiter string) (*ListResult, error)
	Delete(ctx context.Context, key string) error
}

// ListResult holds storage listing results
type ListResult struct {
	Keys              []string
	DelimitedPrefixes []string
}

// KVStore holds small values such as export job status.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Runtime holds the process-wide backends.
type Runtime struct {
	Data    Storage // presentations
	Exports Storage // exported documents
	KV      KVStore
}

// Current is set once at startup.
var Current *Runtime

// SetRuntime sets the global runtime
func SetRuntime(r *Runtime) {
	Current = r
}

// Data returns the presentation storage, or an empty in-memory store when
// none is configured.
func Data() Storage {
	if Current == nil || Current.Data == nil {
		return fallback.storage
	}
	return Current.Data
}

// Exports returns the export storage.
func Exports() Storage {
	if Current == nil || Current.Exports == nil {
		return fallback.storage
	}
	return Current.Exports
}

// KV returns the KV store
func KV() KVStore {
	if Current == nil || Current.KV == nil {
		return fallback.kv
	}
	return Current.KV
}

var fallback = struct {
	storage *MemoryStorage
	kv      *MemoryKV
}{NewMemoryStorage(), NewMemoryKV()}

// ReadAll reads a whole object.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
