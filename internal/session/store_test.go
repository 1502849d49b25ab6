package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-explorer/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	id := s.Create()
	require.NotEmpty(t, id)

	sel, ok := s.Get(id)
	assert.True(t, ok)
	assert.True(t, sel.IsZero())

	_, ok = s.Get("nope")
	assert.False(t, ok)
}

func TestEnsure(t *testing.T) {
	s := NewStore()
	id := s.Create()

	got, created := s.Ensure(id)
	assert.Equal(t, id, got)
	assert.False(t, created)

	got, created = s.Ensure("stale")
	assert.NotEqual(t, "stale", got)
	assert.True(t, created)
	assert.Equal(t, 2, s.Len())
}

func TestUpdateIsolatesCallers(t *testing.T) {
	s := NewStore()
	id := s.Create()

	out := s.Update(id, func(sel *models.FilterSelection) {
		sel.Set(models.DimCustomer, []string{"Beta", "Acme", "Beta"})
		sel.Search = "acme"
	})
	assert.Equal(t, []string{"Acme", "Beta"}, out.Customers)

	out.Customers[0] = "mutated"
	sel, _ := s.Get(id)
	assert.Equal(t, []string{"Acme", "Beta"}, sel.Customers)
	assert.Equal(t, "acme", sel.Search)
}

func TestReset(t *testing.T) {
	s := NewStore()
	id := s.Create()
	s.Update(id, func(sel *models.FilterSelection) {
		sel.Set(models.DimState, []string{"WI"})
		sel.SetStakeholders([]string{"Email"})
		sel.MapMode = models.MapDensity
		sel.Search = "x"
	})

	s.Reset(id)
	sel, ok := s.Get(id)
	assert.True(t, ok)
	assert.True(t, sel.IsZero())
	assert.Equal(t, models.FilterSelection{}, sel)
}

func TestSweep(t *testing.T) {
	s := NewStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	old := s.Create()
	now = now.Add(45 * time.Minute)
	fresh := s.Create()

	assert.Equal(t, 1, s.Sweep(30*time.Minute))
	_, ok := s.Get(old)
	assert.False(t, ok)
	_, ok = s.Get(fresh)
	assert.True(t, ok)
}

func TestConcurrentUpdates(t *testing.T) {
	s := NewStore()
	id := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(id, func(sel *models.FilterSelection) {
				sel.Zips = append(sel.Zips, "x")
			})
		}()
	}
	wg.Wait()

	sel, _ := s.Get(id)
	assert.Len(t, sel.Zips, 20)
}
