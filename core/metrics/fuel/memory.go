package fuel

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add merges r into the record of its station and day. A zero
// Evaluations count is taken as one evaluation.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.StationID] == nil {
		s.data[r.StationID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.StationID][d]
	if rec == nil {
		rec = &Record{StationID: r.StationID, Date: d}
		s.data[r.StationID][d] = rec
	}
	n := r.Evaluations
	if n == 0 {
		n = 1
	}
	rec.Evaluations += n
	rec.ShaftPower += r.ShaftPower
	rec.EnergyRate += r.EnergyRate
	return nil
}

// Query returns the station's records between start and end inclusive,
// ordered by day.
func (s *MemoryStore) Query(stationID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[stationID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
