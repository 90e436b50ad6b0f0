package mocks

import (
	"fmt"
	"sync"

	"github.com/davidwalker2235/hcongame/internal/dependencies/random"
)

// MockRandom returns queued strings in order. Once the queue is empty it
// returns "mock-1", "mock-2" and so on so generated tokens stay unique.
type MockRandom struct {
	mu       sync.Mutex
	queued   []string
	fallback int
}

var _ random.Random = (*MockRandom)(nil)

func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) String(int, string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queued) == 0 {
		r.fallback++
		return fmt.Sprintf("mock-%d", r.fallback)
	}
	next := r.queued[0]
	r.queued = r.queued[1:]
	return next
}

// QueueString adds values to be returned by String
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, values...)
}
