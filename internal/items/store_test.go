package items

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rnb-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `[
  {"Code_bat_ter": 101, "Libelle_bat_ter": "Mairie", "Adresse": "1 place", "rnb_ids": "['RNB-A']", "Surface_de_plancher": 120.5},
  {"Code_bat_ter": "BAT-2", "Libelle_bat_ter": "École", "rnb_ids": "[]"}
]`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func readBack(t *testing.T, p string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func fixedClock() time.Time { return time.Date(2025, 12, 11, 23, 30, 0, 0, time.UTC) }

func TestListLimit(t *testing.T) {
	p := writeFixture(t, fixture)

	recs, err := NewStore(p, 0).List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "101", recs[0].String("Code_bat_ter"))
	assert.Equal(t, "120.5", recs[0].String("Surface_de_plancher"))

	recs, err = NewStore(p, 1).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestListMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope.json"), 10).List(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdateAppliesPatch(t *testing.T) {
	p := writeFixture(t, fixture)
	s := NewStore(p, 10).WithClock(fixedClock)

	patch := model.Patch{
		Name:      model.Str("Hôtel de ville"),
		Address:   model.Str("2 place de l'Horloge"),
		Surface:   model.Str("250"),
		RNBIDs:    []string{"RNB-X", "RNB-Y"},
		HasRNBIDs: true,
	}
	require.NoError(t, s.Update(context.Background(), "101", patch))

	out := readBack(t, p)
	require.Len(t, out, 2)
	got := out[0]
	assert.Equal(t, "Hôtel de ville", got["Libelle_bat_ter"])
	assert.Equal(t, "2 place de l'Horloge", got["Adresse"])
	assert.Equal(t, "2 place de l'Horloge", got["die_adresse"])
	assert.Equal(t, 250.0, got["Surface_de_plancher"])
	assert.Equal(t, `["RNB-X","RNB-Y"]`, got["contre_proposition_rnb_ids"])
	assert.Equal(t, "['RNB-A']", got["rnb_ids"], "original matches are kept")
	assert.Equal(t, UpdateSource, got["last_update_source"])
	assert.Equal(t, "2025-12-11", got["last_update_date"])

	assert.Equal(t, "École", out[1]["Libelle_bat_ter"])
	assert.NotContains(t, out[1], "last_update_source")
}

func TestUpdatePartialFields(t *testing.T) {
	p := writeFixture(t, fixture)
	s := NewStore(p, 10).WithClock(fixedClock)

	require.NoError(t, s.Update(context.Background(), "BAT-2", model.Patch{Surface: model.Str("n/a"), Usage: model.Str("Scolaire")}))
	got := readBack(t, p)[1]
	assert.Equal(t, "n/a", got["Surface_de_plancher"])
	assert.Equal(t, "Scolaire", got["Usage_detaille_du_bien"])
	assert.NotContains(t, got, "contre_proposition_rnb_ids")
	assert.NotContains(t, got, "Adresse")
}

func TestUpdateEmptyRNBIDs(t *testing.T) {
	p := writeFixture(t, fixture)
	s := NewStore(p, 10)

	require.NoError(t, s.Update(context.Background(), "BAT-2", model.Patch{HasRNBIDs: true}))
	assert.Equal(t, "[]", readBack(t, p)[1]["contre_proposition_rnb_ids"])
}

func TestUpdateNotFound(t *testing.T) {
	p := writeFixture(t, fixture)
	before, err := os.ReadFile(p)
	require.NoError(t, err)

	err = NewStore(p, 10).Update(context.Background(), "BAT-404", model.Patch{Name: model.Str("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
