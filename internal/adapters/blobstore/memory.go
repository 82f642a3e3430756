package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data     []byte
	modified time.Time
}

// MemoryBackend is an in-process Backend. Listing is lexicographic and the
// cursor is the last key of the previous page.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]memoryObject)}
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{data: append([]byte(nil), data...), modified: time.Now()}
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

// List implements Backend.
func (m *MemoryBackend) List(ctx context.Context, in ListInput) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, in.Prefix) && k > in.Cursor {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	limit := in.limit()
	var page ListPage
	for i, k := range keys {
		if i == limit {
			page.NextCursor = page.Objects[len(page.Objects)-1].Key
			break
		}
		obj := m.objects[k]
		page.Objects = append(page.Objects, Object{Key: k, Size: int64(len(obj.data)), LastModified: obj.modified})
	}
	m.mu.RUnlock()
	return page, nil
}

// Len returns the number of stored objects.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
