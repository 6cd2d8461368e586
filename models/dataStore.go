package models

import (
	"log"
	"sync"
	"time"
)

// DataStore keeps built participant datasets so that page loads and viewer
// sessions share one immutable copy. Entries older than maxAge are rebuilt.
type DataStore struct {
	mu       sync.RWMutex
	maxAge   time.Duration
	datasets map[string]*ParticipantDataset
	roster   []ParticipantInfo
	cohort   CohortAverages
}

func NewDataStore(maxAge time.Duration) *DataStore {
	return &DataStore{
		maxAge:   maxAge,
		datasets: make(map[string]*ParticipantDataset),
	}
}

// Get returns the cached dataset for user if it is still fresh.
func (s *DataStore) Get(user string) (*ParticipantDataset, bool) {
	s.mu.RLock()
	ds, ok := s.datasets[user]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !isCacheValid(ds.BuiltAt, s.maxAge) {
		log.Printf("Dataset for %s expired, rebuilding", user)
		s.Invalidate(user)
		return nil, false
	}
	return ds, true
}

func (s *DataStore) Put(ds *ParticipantDataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.User] = ds
}

func (s *DataStore) Invalidate(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.datasets, user)
}

// InvalidateAll drops every dataset and the cached roster.
func (s *DataStore) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets = make(map[string]*ParticipantDataset)
	s.roster = nil
	s.cohort = CohortAverages{}
}

// SetRoster stores the participant list and the cohort averages computed
// from the same load.
func (s *DataStore) SetRoster(roster []ParticipantInfo, cohort CohortAverages) {
	if roster == nil {
		roster = []ParticipantInfo{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = roster
	s.cohort = cohort
}

func (s *DataStore) Roster() ([]ParticipantInfo, CohortAverages, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster, s.cohort, s.roster != nil
}

// Len is the number of cached datasets.
func (s *DataStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
