package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
)

func TestSnapshotStorePutGet(t *testing.T) {
	s := NewSnapshotStore()

	_, err := s.Get("ACME")
	assert.True(t, errors.IsNotFound(err))

	snap := &models.MarketSnapshot{Symbol: "ACME", Spot: 50, Timestamp: time.Now()}
	s.Put(snap)

	got, err := s.Get("ACME")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	newer := &models.MarketSnapshot{Symbol: "ACME", Spot: 51, Timestamp: time.Now()}
	s.Put(newer)
	got, err = s.Get("ACME")
	require.NoError(t, err)
	assert.Equal(t, 51.0, got.Spot)
}

func TestSnapshotStoreAllIsCopy(t *testing.T) {
	s := NewSnapshotStore()
	s.Put(&models.MarketSnapshot{Symbol: "ACME", Spot: 50})

	all := s.All()
	require.Len(t, all, 1)
	delete(all, "ACME")

	_, err := s.Get("ACME")
	assert.NoError(t, err, "mutating the copy must not affect the store")
}

func TestReportStoreLatest(t *testing.T) {
	s := NewReportStore()

	_, err := s.Latest()
	assert.True(t, errors.IsNotFound(err))

	s.Set(&models.RiskReport{ID: "first"})
	s.Set(&models.RiskReport{ID: "second"})

	got, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)
}

func TestSnapshotStoreConcurrentAccess(t *testing.T) {
	s := NewSnapshotStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Put(&models.MarketSnapshot{Symbol: "ACME", Spot: 50})
		}()
		go func() {
			defer wg.Done()
			s.All()
		}()
	}
	wg.Wait()

	_, err := s.Get("ACME")
	assert.NoError(t, err)
}
