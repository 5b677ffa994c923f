package reading

import "sync"

// LatestStore keeps the most recent enriched reading per station, bounded
// by an LRU policy. Station IDs arrive from untrusted sensors, so the cap
// stops a misbehaving fleet from growing the map without limit; stations
// that stop reporting age out once the cap is reached. Lookups do not
// refresh recency, eviction follows reporting order only.
type LatestStore struct {
	maxStations int
	mu          sync.Mutex
	stations    map[string]*stationEntry
	head        *stationEntry // most recently updated
	tail        *stationEntry // least recently updated
}

type stationEntry struct {
	stationID string
	latest    EnrichedReading
	prev      *stationEntry
	next      *stationEntry
}

// NewLatestStore creates a store tracking at most maxStations stations.
func NewLatestStore(maxStations int) *LatestStore {
	return &LatestStore{
		maxStations: maxStations,
		stations:    make(map[string]*stationEntry),
	}
}

// Put records the reading as the latest for its station.
func (s *LatestStore) Put(r EnrichedReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.stations[r.StationID]; ok {
		e.latest = r
		s.moveToFront(e)
		return
	}

	e := &stationEntry{stationID: r.StationID, latest: r}
	s.stations[r.StationID] = e
	s.addToFront(e)

	if len(s.stations) > s.maxStations {
		s.evictTail()
	}
}

// Get returns the latest reading for a station.
func (s *LatestStore) Get(stationID string) (EnrichedReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.stations[stationID]
	if !ok {
		return EnrichedReading{}, false
	}
	return e.latest, true
}

// Snapshot returns the latest reading of every tracked station, most
// recently updated first.
func (s *LatestStore) Snapshot() []EnrichedReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EnrichedReading, 0, len(s.stations))
	for e := s.head; e != nil; e = e.next {
		out = append(out, e.latest)
	}
	return out
}

// Len reports how many stations are tracked.
func (s *LatestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.stations)
}

func (s *LatestStore) moveToFront(e *stationEntry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *LatestStore) addToFront(e *stationEntry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *LatestStore) remove(e *stationEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *LatestStore) evictTail() {
	if s.tail == nil {
		return
	}
	delete(s.stations, s.tail.stationID)
	s.remove(s.tail)
}
