package mapview

import (
	"context"
	"errors"
	"testing"
	"time"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type emptyErr struct{}

func (emptyErr) Error() string { return "no result" }
func (emptyErr) Empty() bool   { return true }

type fakeLookup struct {
	ids   []string
	err   error
	calls []model.LatLng
	radii []int
}

func (f *fakeLookup) Closest(_ context.Context, lat, lng float64, radius int) (string, error) {
	f.calls = append(f.calls, model.LatLng{lat, lng})
	f.radii = append(f.radii, radius)
	if f.err != nil {
		return "", f.err
	}
	if len(f.ids) == 0 {
		return "", nil
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

func newTestSession(l Lookup) (*Session, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 12, 11, 9, 0, 0, 0, time.UTC)}
	return NewSession(l, Options{Clock: clk.Now, Logger: logger.Discard()}), clk
}

func item(id string, ids ...string) model.Item {
	return model.Item{
		ID:          id,
		RNBIDs:      ids,
		Coordinates: model.LatLng{48.85, 2.35},
		Zone:        []model.LatLng{{48.84, 2.34}, {48.84, 2.36}, {48.86, 2.36}, {48.86, 2.34}, {48.84, 2.34}},
	}
}

func TestToggle(t *testing.T) {
	assert.Equal(t, []string{"A", "C"}, Toggle([]string{"A", "B", "C"}, "B"))
	assert.Equal(t, []string{"A", "B", "C", "D"}, Toggle([]string{"A", "B", "C"}, "D"))
	assert.Equal(t, []string{"X"}, Toggle(nil, "X"))
	assert.Equal(t, []string{"A", "B", "A"}, Toggle([]string{"A", "A", "B", "A"}, "A"))

	in := []string{"A", "B"}
	_ = Toggle(in, "A")
	assert.Equal(t, []string{"A", "B"}, in, "input must not be modified")
}

func TestStylesApply(t *testing.T) {
	var s Styles
	d := s.Apply([]string{"A", "B"})
	assert.Empty(t, d.Reset)
	assert.Equal(t, []string{"A", "B"}, d.Highlight)

	d = s.Apply([]string{"B", "C"})
	assert.Equal(t, []string{"A"}, d.Reset)
	assert.Equal(t, []string{"B", "C"}, d.Highlight)

	d = s.Apply(nil)
	assert.Equal(t, []string{"B", "C"}, d.Reset)
	assert.Empty(t, d.Highlight)
}

func TestClickTogglesIdentifier(t *testing.T) {
	lk := &fakeLookup{ids: []string{"RNB-9", "RNB-1"}}
	s, clk := newTestSession(lk)
	s.SetActive(item("A", "RNB-1", "RNB-2"))

	res, err := s.Click(context.Background(), model.LatLng{48.8, 2.3})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, res.Outcome)
	assert.Equal(t, []string{"RNB-1", "RNB-2", "RNB-9"}, res.RNBIDs)
	assert.True(t, res.Changed())

	clk.Advance(ClickDebounce)
	res, err = s.Click(context.Background(), model.LatLng{48.8, 2.3})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, res.Outcome)
	assert.Equal(t, []string{"RNB-2", "RNB-9"}, res.RNBIDs)
	assert.Equal(t, []string{"RNB-1"}, res.Styles.Reset)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, []string{"RNB-2", "RNB-9"}, active.RNBIDs)
	assert.Equal(t, []model.LatLng{{48.8, 2.3}, {48.8, 2.3}}, lk.calls)
	assert.Equal(t, []int{DefaultRadius, DefaultRadius}, lk.radii)
}

func TestClickDebounce(t *testing.T) {
	lk := &fakeLookup{ids: []string{"RNB-1", "RNB-2"}}
	s, clk := newTestSession(lk)
	s.SetActive(item("A"))

	first, err := s.Click(context.Background(), model.LatLng{1, 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, first.Outcome)

	clk.Advance(100 * time.Millisecond)
	second, err := s.Click(context.Background(), model.LatLng{2, 2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDebounced, second.Outcome)
	assert.Len(t, lk.calls, 1, "second click must not reach the registry")
	assert.Equal(t, []string{"RNB-1"}, second.RNBIDs)

	// dropped clicks do not extend the window
	clk.Advance(500 * time.Millisecond)
	third, err := s.Click(context.Background(), model.LatLng{3, 3})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, third.Outcome)
	assert.Len(t, lk.calls, 2)
}

func TestClickLookupFailureLeavesIDs(t *testing.T) {
	tests := []struct {
		name string
		lk   *fakeLookup
		want Outcome
	}{
		{"network error", &fakeLookup{err: errors.New("dial tcp: refused")}, OutcomeLookupFailed},
		{"no building", &fakeLookup{err: emptyErr{}}, OutcomeEmpty},
		{"empty id", &fakeLookup{}, OutcomeEmpty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSession(tc.lk)
			s.SetActive(item("A", "RNB-1"))
			res, err := s.Click(context.Background(), model.LatLng{1, 1})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Outcome)
			assert.False(t, res.Changed())
			active, _ := s.Active()
			assert.Equal(t, []string{"RNB-1"}, active.RNBIDs)
		})
	}
}

func TestClickWithoutSelection(t *testing.T) {
	lk := &fakeLookup{ids: []string{"RNB-1"}}
	s, _ := newTestSession(lk)
	res, err := s.Click(context.Background(), model.LatLng{1, 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoSelection, res.Outcome)
	assert.Empty(t, lk.calls)
}

func TestSetRNBIDsRecomputesStyles(t *testing.T) {
	s, _ := newTestSession(&fakeLookup{})
	d, _ := s.SetActive(item("A", "RNB-1", "RNB-2"))
	assert.Equal(t, []string{"RNB-1", "RNB-2"}, d.Highlight)

	d = s.SetRNBIDs([]string{"RNB-2", "RNB-3"})
	assert.Equal(t, []string{"RNB-1"}, d.Reset)
	assert.Equal(t, []string{"RNB-2", "RNB-3"}, d.Highlight)

	d, _ = s.SetActive(item("B"))
	assert.Equal(t, []string{"RNB-2", "RNB-3"}, d.Reset)
	assert.Empty(t, d.Highlight)
}

func TestSetActiveRefitsBounds(t *testing.T) {
	s, _ := newTestSession(&fakeLookup{})
	_, refit := s.SetActive(item("A"))
	assert.True(t, refit)
	b, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, model.LatLng{48.84, 2.34}, b.SouthWest)
	assert.Equal(t, model.LatLng{48.86, 2.36}, b.NorthEast)

	_, refit = s.SetActive(item("A", "RNB-1"))
	assert.False(t, refit, "same zone keeps the viewport")

	single := model.Item{ID: "C", Coordinates: model.LatLng{45, 4}}
	_, refit = s.SetActive(single)
	assert.True(t, refit)
	b, _ = s.Bounds()
	assert.Equal(t, Bounds{SouthWest: model.LatLng{45, 4}, NorthEast: model.LatLng{45, 4}}, b)
}

func TestCloseTearsDown(t *testing.T) {
	lk := &fakeLookup{ids: []string{"RNB-1"}}
	s, _ := newTestSession(lk)
	s.SetActive(item("A", "RNB-7"))

	assert.Equal(t, []string{"RNB-7"}, s.Close())
	_, err := s.Click(context.Background(), model.LatLng{1, 1})
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := s.Active()
	assert.False(t, ok)
	_, ok = s.Bounds()
	assert.False(t, ok)
	assert.Empty(t, lk.calls)
}

func TestMarkersAndFitAll(t *testing.T) {
	items := []model.Item{
		{ID: "A", Coordinates: model.LatLng{43.8, 4.3}},
		{ID: "B", Coordinates: model.LatLng{44.0, 4.5}},
	}
	ms := Markers(items, "B")
	require.Len(t, ms, 2)
	assert.Equal(t, 8, ms[0].Radius)
	assert.False(t, ms[0].Active)
	assert.Equal(t, 12, ms[1].Radius)
	assert.Equal(t, "#1D4ED8", ms[1].Color)

	b, center, zoom := FitAll(items)
	assert.Equal(t, model.LatLng{43.8, 4.3}, b.SouthWest)
	assert.Equal(t, model.LatLng{44.0, 4.5}, b.NorthEast)
	assert.Equal(t, model.LatLng{43.8, 4.3}, center)
	assert.Equal(t, 11, zoom)

	_, center, zoom = FitAll(nil)
	assert.Equal(t, DefaultCenter, center)
	assert.Equal(t, 6, zoom)
}

func TestLayers(t *testing.T) {
	cfg := Layers("https://rnb/tiles/{x}/{y}/{z}.pbf", 5)
	assert.Equal(t, int64(600), cfg.DebounceMs)
	assert.Len(t, cfg.Base, 3)
	assert.True(t, cfg.Base[0].Default)
	assert.Equal(t, SelectedTileStyle, cfg.SelectedStyle)
}
