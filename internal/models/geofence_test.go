package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func squareFence(t *testing.T) Geofence {
	t.Helper()
	geom, err := json.Marshal(GeoJSONPolygon{
		Type: "Polygon",
		Coordinates: [][][]float64{{
			{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
		}},
	})
	require.NoError(t, err)
	return Geofence{Name: "depot", Geometry: datatypes.JSON(geom)}
}

func TestGeofenceValidate(t *testing.T) {
	g := squareFence(t)
	assert.Empty(t, g.Validate())

	t.Run("missing name", func(t *testing.T) {
		g := squareFence(t)
		g.Name = ""
		assert.NotEmpty(t, g.Validate())
	})

	t.Run("not a polygon", func(t *testing.T) {
		g := squareFence(t)
		g.Geometry = datatypes.JSON(`{"type":"Point","coordinates":[1,2]}`)
		assert.NotEmpty(t, g.Validate())
	})

	t.Run("ring too short", func(t *testing.T) {
		g := squareFence(t)
		g.Geometry = datatypes.JSON(`{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0]]]}`)
		assert.NotEmpty(t, g.Validate())
	})

	t.Run("garbage geometry", func(t *testing.T) {
		g := squareFence(t)
		g.Geometry = datatypes.JSON(`not json`)
		assert.NotEmpty(t, g.Validate())
	})
}

func TestGeofenceContains(t *testing.T) {
	g := squareFence(t)

	assert.True(t, g.Contains(5, 5))
	assert.True(t, g.Contains(9.99, 0.01))
	assert.False(t, g.Contains(5, 10.01))
	assert.False(t, g.Contains(-5, 5))
	assert.False(t, g.Contains(20, 20))
}
