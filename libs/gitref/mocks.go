package gitref

import (
	"context"
	"sync"
)

// MockRefLister serves scripted listings and counts calls per repository,
// which lets tests assert that caching and dedup keep network trips down.
type MockRefLister struct {
	RefsByRepository map[string][]RemoteRef
	ErrByRepository  map[string]error

	lock  sync.Mutex
	calls map[string]int
}

func (m *MockRefLister) ListRefs(ctx context.Context, repository string) ([]RemoteRef, error) {
	m.lock.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[repository]++
	m.lock.Unlock()

	if err, ok := m.ErrByRepository[repository]; ok {
		return nil, err
	}
	return m.RefsByRepository[repository], nil
}

// Calls returns how many times a repository was listed.
func (m *MockRefLister) Calls(repository string) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.calls[repository]
}
