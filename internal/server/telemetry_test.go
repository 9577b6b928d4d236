package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-gateway/internal/models"
)

func (e *testEnv) ingestPosition(token, csrf string, vehicleID uint, lat, lng float64, ts time.Time) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/gps/positions", token, csrf, map[string]any{
		"vehicle_id": vehicleID,
		"lat":        lat,
		"lng":        lng,
		"speed":      42.0,
		"heading":    90.0,
		"timestamp":  ts.Format(time.RFC3339),
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func vehicleIDOf(t *testing.T, created map[string]any) uint {
	t.Helper()
	id, ok := created["id"].(float64)
	require.True(t, ok, "vehicle id missing from %v", created)
	return uint(id)
}

func TestGPSHistory(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "gps@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	vehicleID := vehicleIDOf(t, env.createVehicle(token, csrf, vinFor(600)))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Ingest out of order; history must come back ascending.
	env.ingestPosition(token, csrf, vehicleID, 40.0, -74.0, base.Add(2*time.Minute))
	env.ingestPosition(token, csrf, vehicleID, 40.1, -74.1, base)
	env.ingestPosition(token, csrf, vehicleID, 40.2, -74.2, base.Add(time.Minute))

	historyPath := fmt.Sprintf("/api/v1/gps/vehicles/%d/history", vehicleID)

	t.Run("ascending by timestamp", func(t *testing.T) {
		rec := env.do(http.MethodGet, historyPath, token, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data  []models.GPSPosition `json:"data"`
			Total int                  `json:"total"`
		}
		decodeBody(t, rec, &resp)
		require.Equal(t, 3, resp.Total)
		for i := 1; i < len(resp.Data); i++ {
			assert.True(t, resp.Data[i].Timestamp.After(resp.Data[i-1].Timestamp))
		}
	})

	t.Run("window filters inclusively", func(t *testing.T) {
		path := fmt.Sprintf("%s?startTime=%s&endTime=%s", historyPath,
			base.Format(time.RFC3339), base.Add(time.Minute).Format(time.RFC3339))
		rec := env.do(http.MethodGet, path, token, "", nil)

		var resp struct {
			Data  []models.GPSPosition `json:"data"`
			Total int                  `json:"total"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("empty window is an empty list", func(t *testing.T) {
		path := fmt.Sprintf("%s?startTime=%s&endTime=%s", historyPath,
			base.Add(-2*time.Hour).Format(time.RFC3339), base.Add(-time.Hour).Format(time.RFC3339))
		rec := env.do(http.MethodGet, path, token, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data  []models.GPSPosition `json:"data"`
			Total int                  `json:"total"`
		}
		decodeBody(t, rec, &resp)
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.Data)
	})

	t.Run("bounding box", func(t *testing.T) {
		path := historyPath + "?minLat=40.05&maxLat=40.25&minLng=-74.25&maxLng=-74.05"
		rec := env.do(http.MethodGet, path, token, "", nil)

		var resp struct {
			Total int `json:"total"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("malformed timestamps fail validation", func(t *testing.T) {
		rec := env.do(http.MethodGet, historyPath+"?startTime=yesterday", token, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/gps/vehicles/99999/history", token, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("position for unknown vehicle fails validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/gps/positions", token, csrf, map[string]any{
			"vehicle_id": 99999, "lat": 0.0, "lng": 0.0,
			"timestamp": base.Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("coordinates out of range fail validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/gps/positions", token, csrf, map[string]any{
			"vehicle_id": vehicleID, "lat": 91.0, "lng": 0.0,
			"timestamp": base.Add(time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestGeofenceAlerts(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "fence@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	vehicleID := vehicleIDOf(t, env.createVehicle(token, csrf, vinFor(700)))

	// Square over [0,10]x[0,10] in lng/lat.
	square := map[string]any{
		"type": "Polygon",
		"coordinates": [][][]float64{{
			{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
		}},
	}
	rec := env.do(http.MethodPost, "/api/v1/geofences", token, csrf, map[string]any{
		"name":           "depot",
		"geometry":       square,
		"alert_on_enter": true,
		"alert_on_exit":  true,
		"is_active":      true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var fenceResp struct {
		Data models.Geofence `json:"data"`
	}
	decodeBody(t, rec, &fenceResp)
	fenceID := fenceResp.Data.ID.String()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	env.ingestPosition(token, csrf, vehicleID, 20, 20, base)                   // outside
	env.ingestPosition(token, csrf, vehicleID, 5, 5, base.Add(time.Minute))   // enter
	env.ingestPosition(token, csrf, vehicleID, 6, 6, base.Add(2*time.Minute)) // still inside, no alert
	env.ingestPosition(token, csrf, vehicleID, 30, 30, base.Add(3*time.Minute)) // exit

	rec = env.do(http.MethodGet, "/api/v1/geofences/"+fenceID+"/alerts", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []models.GeofenceAlert `json:"data"`
		Total int                    `json:"total"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, 2, resp.Total)

	types := []string{resp.Data[0].AlertType, resp.Data[1].AlertType}
	assert.Contains(t, types, "enter")
	assert.Contains(t, types, "exit")
	for _, alert := range resp.Data {
		assert.Equal(t, vehicleID, alert.VehicleID)
	}

	t.Run("invalid geometry is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/geofences", token, csrf, map[string]any{
			"name":     "broken",
			"geometry": map[string]any{"type": "Polygon", "coordinates": [][][]float64{{{0, 0}, {1, 1}}}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown geofence is not found", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/geofences/"+uuid.NewString()+"/alerts", token, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("cross-tenant geofence is not found", func(t *testing.T) {
		_, otherToken := env.seedUser(uuid.New(), "fence-b@fleet.test", models.RoleUser)
		rec := env.do(http.MethodGet, "/api/v1/geofences/"+fenceID+"/alerts", otherToken, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, rec))
	})
}

func TestMaintenanceByVehicle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "maint@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	vehicleID := vehicleIDOf(t, env.createVehicle(token, csrf, vinFor(800)))

	costs := []string{"10.50", "20.25", "5.00"}
	for _, cost := range costs {
		rec := env.do(http.MethodPost, "/api/v1/maintenance", token, csrf, map[string]any{
			"vehicle_id":  vehicleID,
			"type":        "preventive",
			"description": "oil change",
			"cost":        cost,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	t.Run("aggregates match the returned rows", func(t *testing.T) {
		rec := env.do(http.MethodGet, fmt.Sprintf("/api/v1/maintenance/vehicle/%d", vehicleID), token, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data         []models.MaintenanceRecord `json:"data"`
			TotalRecords int64                      `json:"total_records"`
			TotalCost    string                     `json:"total_cost"`
		}
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Data, 3)
		assert.Equal(t, int64(3), resp.TotalRecords)
		assert.Equal(t, "35.75", resp.TotalCost)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/maintenance/vehicle/99999", token, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maintenance against a missing vehicle fails validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/maintenance", token, csrf, map[string]any{
			"vehicle_id": 99999, "type": "corrective", "cost": "1.00",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
