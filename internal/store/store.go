// Package store holds the in-memory state shared between the feed, the
// analysis engine, and the API layer.
package store

import (
	"sync"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
)

// SnapshotStore keeps the latest market snapshot per underlying.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*models.MarketSnapshot
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[string]*models.MarketSnapshot)}
}

// Put stores or replaces the snapshot for its symbol.
func (s *SnapshotStore) Put(snap *models.MarketSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Symbol] = snap
}

// Get returns the snapshot for a symbol.
func (s *SnapshotStore) Get(symbol string) (*models.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[symbol]
	if !ok {
		return nil, errors.NotFound("no snapshot for symbol " + symbol)
	}
	return snap, nil
}

// All returns a copy of the snapshot map for one analysis cycle.
func (s *SnapshotStore) All() map[string]*models.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.MarketSnapshot, len(s.snaps))
	for sym, snap := range s.snaps {
		out[sym] = snap
	}
	return out
}

// ReportStore retains the most recent risk report.
type ReportStore struct {
	mu     sync.RWMutex
	latest *models.RiskReport
}

// NewReportStore creates an empty report store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Set replaces the latest report.
func (s *ReportStore) Set(report *models.RiskReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = report
}

// Latest returns the most recent report.
func (s *ReportStore) Latest() (*models.RiskReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, errors.NotFound("no report generated yet")
	}
	return s.latest, nil
}
