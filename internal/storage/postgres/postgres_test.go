package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyProtocolSelection(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("copy threshold is 100", prop.ForAll(
		func(size int) bool {
			if size >= 100 {
				return shouldUseCopy(size)
			}
			return !shouldUseCopy(size)
		},
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestGameRowMatchesColumns(t *testing.T) {
	at := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)
	g := game.New("owner", game.Details{Name: "Azul"}, at)
	g.RecordPlay("2024-03-05", nil, at)

	values, err := gameRow(*g)
	require.NoError(t, err)
	require.Len(t, values, len(gameColumns))

	assert.Equal(t, "owner", values[0])
	assert.Equal(t, g.ID, values[1])
	assert.Equal(t, 1, values[11])
	assert.JSONEq(t, `{"2024-03-05":1}`, string(values[9].([]byte)))
	assert.JSONEq(t, `[]`, string(values[10].([]byte)))
}

func TestDecodeColumnsRepairsTotals(t *testing.T) {
	g := game.Game{ID: "g1", Plays: 99}
	history, _ := json.Marshal(map[string]int{"2024-03-01": 2, "2024-03-02": 0, "2024-03-03": -1})

	err := decodeColumns(&g, []byte("null"), nil, []byte(`{"won":true}`), history, []byte("[]"))
	require.NoError(t, err)

	assert.Nil(t, g.Players)
	assert.True(t, g.Tracking.Won)
	assert.Equal(t, map[string]int{"2024-03-01": 2}, g.PlayHistory)
	assert.Equal(t, 2, g.Plays)
}

func TestDecodeColumnsRejectsBadJSON(t *testing.T) {
	g := game.Game{ID: "g1"}
	err := decodeColumns(&g, nil, nil, nil, []byte("{"), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidRecord)
}
