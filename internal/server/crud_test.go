package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-gateway/internal/models"
)

type listMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type vehicleList struct {
	Data       []models.Vehicle `json:"data"`
	Pagination listMeta         `json:"pagination"`
}

func TestVehicleCRUD(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "crud@fleet.test", models.RoleManager)
	csrf := env.csrfFor(token)

	created := env.createVehicle(token, csrf, vinFor(100))
	id := fmt.Sprintf("%v", created["id"])
	require.NotEmpty(t, id)

	t.Run("get round-trips the record", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles/"+id, token, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data models.Vehicle `json:"data"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, vinFor(100), resp.Data.VIN)
		assert.Equal(t, 2023, resp.Data.Year)
		assert.Equal(t, models.VehicleStatusActive, resp.Data.Status)
	})

	t.Run("partial update keeps unspecified fields", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/vehicles/"+id, token, csrf, map[string]any{
			"status":   "maintenance",
			"odometer": 1500.5,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data models.Vehicle `json:"data"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, models.VehicleStatusMaintenance, resp.Data.Status)
		assert.Equal(t, 1500.5, resp.Data.Odometer)
		assert.Equal(t, vinFor(100), resp.Data.VIN)
		assert.Equal(t, "Ford", resp.Data.Make)
	})

	t.Run("update cannot move the record to another tenant", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/vehicles/"+id, token, csrf, map[string]any{
			"tenant_id": uuid.New(),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		get := env.do(http.MethodGet, "/api/v1/vehicles/"+id, token, "", nil)
		assert.Equal(t, http.StatusOK, get.Code)
	})

	t.Run("update with invalid field fails validation", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/vehicles/"+id, token, csrf, map[string]any{
			"year": 1850,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	})

	t.Run("delete then delete again", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/v1/vehicles/"+id, token, csrf, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		decodeBody(t, rec, &resp)
		assert.Equal(t, "vehicle deleted", resp["message"])

		rec = env.do(http.MethodDelete, "/api/v1/vehicles/"+id, token, csrf, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("deleted record is gone from reads", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles/"+id, token, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		list := env.do(http.MethodGet, "/api/v1/vehicles", token, "", nil)
		var resp vehicleList
		decodeBody(t, list, &resp)
		assert.Zero(t, resp.Pagination.Total)
	})
}

func TestVehicleValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "valid@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"year below range", map[string]any{"vin": vinFor(200), "year": 1899}, "year"},
		{"year above range", map[string]any{"vin": vinFor(201), "year": 2101}, "year"},
		{"vin too short", map[string]any{"vin": "SHORT", "year": 2023}, "vin"},
		{"vin with punctuation", map[string]any{"vin": "1FTFW1ET0-0000001", "year": 2023}, "vin"},
		{"unknown status", map[string]any{"vin": vinFor(202), "year": 2023, "status": "flying"}, "status"},
		{"negative odometer", map[string]any{"vin": vinFor(203), "year": 2023, "odometer": -1}, "odometer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/vehicles", token, csrf, tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			var resp struct {
				Code    string `json:"code"`
				Details struct {
					Fields []struct {
						Field string `json:"field"`
					} `json:"fields"`
				} `json:"details"`
			}
			decodeBody(t, rec, &resp)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)

			found := false
			for _, f := range resp.Details.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			assert.True(t, found, "expected a field error on %q", tc.field)
		})
	}

	t.Run("boundary years are accepted", func(t *testing.T) {
		for i, year := range []int{1900, 2100} {
			rec := env.do(http.MethodPost, "/api/v1/vehicles", token, csrf, map[string]any{
				"vin": vinFor(210 + i), "year": year,
			})
			assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}
	})
}

func TestDuplicateVIN(t *testing.T) {
	env := newTestEnv(t)
	tenant := uuid.New()
	_, token := env.seedUser(tenant, "dup@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	env.createVehicle(token, csrf, vinFor(300))

	rec := env.do(http.MethodPost, "/api/v1/vehicles", token, csrf, map[string]any{
		"vin": vinFor(300), "year": 2023,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_RESOURCE", errorCode(t, rec))

	// Another tenant may reuse the VIN.
	_, otherToken := env.seedUser(uuid.New(), "other@fleet.test", models.RoleUser)
	otherCSRF := env.csrfFor(otherToken)
	env.createVehicle(otherToken, otherCSRF, vinFor(300))

	t.Run("update cannot take another vehicle's vin", func(t *testing.T) {
		second := env.createVehicle(token, csrf, vinFor(301))
		id := fmt.Sprintf("%v", second["id"])

		rec := env.do(http.MethodPut, "/api/v1/vehicles/"+id, token, csrf, map[string]any{
			"vin": vinFor(300),
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "DUPLICATE_RESOURCE", errorCode(t, rec))

		// Re-submitting its own VIN is not a conflict.
		rec = env.do(http.MethodPut, "/api/v1/vehicles/"+id, token, csrf, map[string]any{
			"vin": vinFor(301), "odometer": 1200,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(uuid.New(), "a@fleet.test", models.RoleManager)
	_, tokenB := env.seedUser(uuid.New(), "b@fleet.test", models.RoleManager)

	csrfA := env.csrfFor(tokenA)
	created := env.createVehicle(tokenA, csrfA, vinFor(400))
	id := fmt.Sprintf("%v", created["id"])

	t.Run("cross-tenant get is not found, never forbidden", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles/"+id, tokenB, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("cross-tenant delete is not found", func(t *testing.T) {
		csrfB := env.csrfFor(tokenB)
		rec := env.do(http.MethodDelete, "/api/v1/vehicles/"+id, tokenB, csrfB, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// Still visible to its owner.
		rec = env.do(http.MethodGet, "/api/v1/vehicles/"+id, tokenA, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lists never leak across tenants", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles", tokenB, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Zero(t, resp.Pagination.Total)
		assert.Empty(t, resp.Data)
	})
}

func TestPagination(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(uuid.New(), "page@fleet.test", models.RoleUser)
	csrf := env.csrfFor(token)

	for i := 0; i < 25; i++ {
		env.createVehicle(token, csrf, vinFor(500+i))
	}

	t.Run("defaults", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Data, 20)
		assert.Equal(t, 1, resp.Pagination.Page)
		assert.Equal(t, 20, resp.Pagination.Limit)
		assert.Equal(t, int64(25), resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.Pages)
	})

	t.Run("second page has the remainder", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?page=2", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Data, 5)
	})

	t.Run("limit alias", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?limit=5", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Data, 5)
		assert.Equal(t, 5, resp.Pagination.Limit)
	})

	t.Run("pageSize wins over limit", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?pageSize=10&limit=5", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Data, 10)
	})

	t.Run("page size is capped", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?pageSize=500", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Equal(t, 100, resp.Pagination.Limit)
	})

	t.Run("status filter", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?status=maintenance", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Zero(t, resp.Pagination.Total)
	})

	t.Run("unknown filters are ignored", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/vehicles?color=red", token, "", nil)
		var resp vehicleList
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(25), resp.Pagination.Total)
	})
}
