package store

import (
	"encoding/json"
	"testing"

	"rnb-admin/internal/model"
	"rnb-admin/internal/rnb"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeRow() model.RawRecord {
	return model.RawRecord{
		"Code_bat_ter":                        "301",
		"région":                              "Occitanie",
		"département":                         "30",
		"meilleure_adresse_score_levenshtein": "0.92",
		"fiabilite_adresse":                   "haute",
		"Définition.du.cas":                   "cas 1",
		"fiabilite_rnb_die_vs_cerema":         "moyenne",
		"fiabilite":                           "ok",
		"cerema_cstb_rnb_ids":                 "['RNB-1', 'RNB-2']",
		"geom":                                "0101000000",
		"DIE_adresse":                         "1 place de la Mairie",
	}
}

func TestValidateAdresse(t *testing.T) {
	require.NoError(t, ValidateAdresse(completeRow()))

	r := completeRow()
	delete(r, "geom")
	delete(r, "région")
	err := ValidateAdresse(r)
	assert.ErrorIs(t, err, ErrMissingFields)
	var mf *MissingFieldsError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"région", "geom"}, mf.Fields)

	r = completeRow()
	r["fiabilite"] = nil
	assert.NoError(t, ValidateAdresse(r), "present but null is accepted")
}

func TestColumnsOf(t *testing.T) {
	cols, err := columnsOf(AdresseRecord{Row: completeRow()})
	require.NoError(t, err)
	assert.Equal(t, int64(301), cols.codeBatTer)
	assert.Equal(t, "30", cols.departement)
	assert.InDelta(t, 0.92, cols.scoreLevenshtein, 1e-9)
	assert.True(t, cols.dieAdresse.Valid)
	assert.Equal(t, "1 place de la Mairie", cols.dieAdresse.String)
	assert.False(t, cols.source.Valid)
	assert.JSONEq(t, `["RNB-1","RNB-2"]`, string(cols.rnbIDs))

	cols, err = columnsOf(AdresseRecord{Row: completeRow(), RNBIDs: []string{"RNB-9"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["RNB-9"]`, string(cols.rnbIDs))

	bad := completeRow()
	bad["Code_bat_ter"] = "BAT-X"
	_, err = columnsOf(AdresseRecord{Row: bad})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingFields)
}

func TestBuildingComplete(t *testing.T) {
	b := &rnb.Building{
		RNBID:  "RNB-1",
		Status: "constructed",
		Point:  geojson.NewGeometry(orb.Point{2.35, 48.85}),
		Shape:  geojson.NewGeometry(orb.Polygon{{{2.35, 48.85}, {2.36, 48.85}, {2.36, 48.86}, {2.35, 48.85}}}),
	}
	assert.True(t, BuildingComplete(b))
	assert.False(t, BuildingComplete(nil))

	noShape := *b
	noShape.Shape = nil
	assert.False(t, BuildingComplete(&noShape))

	noStatus := *b
	noStatus.Status = ""
	assert.False(t, BuildingComplete(&noStatus))
}

func TestRowToRecord(t *testing.T) {
	r := rowToRecord([]string{"Code_bat_ter", "cerema_cstb_rnb_ids", "score"}, []any{int64(7), []byte("['A']"), nil})
	assert.Equal(t, int64(7), r["Code_bat_ter"])
	assert.Equal(t, "['A']", r["cerema_cstb_rnb_ids"])
	assert.Nil(t, r["score"])
	_, err := json.Marshal(r)
	assert.NoError(t, err)
}

func TestToInt64(t *testing.T) {
	for in, want := range map[any]int64{"42": 42, 42.0: 42, int64(9): 9, "12.7": 12} {
		got, ok := toInt64(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := toInt64("abc")
	assert.False(t, ok)
}
