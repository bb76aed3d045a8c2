package selection

import (
	"sync"

	"github.com/wonny/alphaselector/internal/contracts"
)

// ReportStore keeps the latest report in memory and fans new reports out to subscribers.
// Reports are not persisted.
type ReportStore struct {
	mu     sync.RWMutex
	latest *contracts.Report
	subs   map[int]chan *contracts.Report
	nextID int
}

// NewReportStore creates an empty store
func NewReportStore() *ReportStore {
	return &ReportStore{subs: make(map[int]chan *contracts.Report)}
}

// Publish replaces the latest report and notifies subscribers.
// A subscriber whose buffer is full misses this report.
func (s *ReportStore) Publish(r *contracts.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = r
	for _, ch := range s.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Latest returns the most recently published report
func (s *ReportStore) Latest() (*contracts.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Subscribe registers a channel for future reports; call cancel to unsubscribe
func (s *ReportStore) Subscribe(buffer int) (<-chan *contracts.Report, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *contracts.Report, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
