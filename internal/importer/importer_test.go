package importer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/model"
	"rnb-admin/internal/rnb"
	"rnb-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows  []model.RawRecord
	err   error
	limit int
}

func (f *fakeSource) ReconciledRows(_ context.Context, limit int) ([]model.RawRecord, error) {
	f.limit = limit
	return f.rows, f.err
}

type fakeRegistry struct {
	mu      sync.Mutex
	missing map[string]bool
	calls   []string
}

func (f *fakeRegistry) GetBuilding(_ context.Context, id string) (*rnb.Building, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.missing[id] {
		return nil, &rnb.StatusError{Endpoint: "building", Status: 404}
	}
	return &rnb.Building{RNBID: id, Status: "constructed"}, nil
}

type fakeSink struct {
	recs []store.AdresseRecord
	fail map[string]error
}

func (f *fakeSink) RegisterAdresse(_ context.Context, rec store.AdresseRecord) (int64, int, error) {
	if err := f.fail[rec.Row.String("Code_bat_ter")]; err != nil {
		return 0, 0, err
	}
	f.recs = append(f.recs, rec)
	return int64(len(f.recs)), len(rec.Buildings), nil
}

func TestRunImportsRows(t *testing.T) {
	src := &fakeSource{rows: []model.RawRecord{
		{"Code_bat_ter": "1", "cerema_cstb_rnb_ids": "['RNB-A', 'RNB-B', 'RNB-C']"},
		{"Code_bat_ter": "2", "cerema_cstb_rnb_ids": "not a list"},
		{"Code_bat_ter": "3"},
		{"Code_bat_ter": "4", "cerema_cstb_rnb_ids": "['RNB-D']"},
	}}
	reg := &fakeRegistry{missing: map[string]bool{"RNB-B": true}}
	sink := &fakeSink{fail: map[string]error{
		"3": &store.MissingFieldsError{Fields: []string{"geom"}},
		"4": errors.New("connection reset"),
	}}
	im := &Importer{Source: src, Registry: reg, Sink: sink, Limit: 10, Workers: 2, Logger: logger.Discard()}

	rep, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, src.limit)
	assert.Equal(t, Report{Rows: 4, Imported: 2, Skipped: 1, Failed: 1, Buildings: 2, Missing: 1}, rep)

	require.Len(t, sink.recs, 2)
	assert.Equal(t, []string{"RNB-A", "RNB-B", "RNB-C"}, sink.recs[0].RNBIDs)
	require.Len(t, sink.recs[0].Buildings, 2)
	assert.Equal(t, "RNB-A", sink.recs[0].Buildings[0].RNBID)
	assert.Equal(t, "RNB-C", sink.recs[0].Buildings[1].RNBID)
	assert.Empty(t, sink.recs[1].RNBIDs)
	assert.Empty(t, sink.recs[1].Buildings)
	assert.ElementsMatch(t, []string{"RNB-A", "RNB-B", "RNB-C", "RNB-D"}, reg.calls)
}

func TestRunSourceError(t *testing.T) {
	im := &Importer{Source: &fakeSource{err: errors.New("db down")}, Registry: &fakeRegistry{}, Sink: &fakeSink{}, Logger: logger.Discard()}
	_, err := im.Run(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{rows: []model.RawRecord{{"Code_bat_ter": "1"}}}
	sink := &fakeSink{}
	im := &Importer{Source: src, Registry: &fakeRegistry{}, Sink: sink, Logger: logger.Discard()}
	_, err := im.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.recs)
}
