package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// Geofence is a named polygonal region with entry/exit alerting flags.
// Geometry is stored as a GeoJSON Polygon.
type Geofence struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Geometry     datatypes.JSON `gorm:"not null" json:"geometry"`
	AlertOnEnter bool           `gorm:"default:false" json:"alert_on_enter"`
	AlertOnExit  bool           `gorm:"default:false" json:"alert_on_exit"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Geofence) TableName() string { return "geofences" }

func (g *Geofence) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (g *Geofence) SetTenantID(id uuid.UUID) { g.TenantID = id }

// GeoJSONPolygon is the subset of GeoJSON the gateway understands.
// Coordinates are rings of [lng, lat] positions; the first and last position
// of a ring must coincide.
type GeoJSONPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// Polygon decodes the stored geometry.
func (g *Geofence) Polygon() (*GeoJSONPolygon, error) {
	var p GeoJSONPolygon
	if err := json.Unmarshal(g.Geometry, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the geometry is a usable GeoJSON Polygon.
func (g *Geofence) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if g.Name == "" {
		errs = append(errs, apierr.FieldError{Field: "name", Message: "is required"})
	}
	p, err := g.Polygon()
	if err != nil || p.Type != "Polygon" || len(p.Coordinates) == 0 {
		errs = append(errs, apierr.FieldError{Field: "geometry", Message: "must be a GeoJSON Polygon"})
		return errs
	}
	for _, ring := range p.Coordinates {
		if len(ring) < 4 {
			errs = append(errs, apierr.FieldError{Field: "geometry", Message: "polygon rings need at least 4 positions"})
			break
		}
		for _, pos := range ring {
			if len(pos) < 2 {
				errs = append(errs, apierr.FieldError{Field: "geometry", Message: "positions must be [lng, lat]"})
				return errs
			}
		}
	}
	return errs
}

// Contains reports whether the point (lat, lng) is inside the geofence's
// outer ring, using ray casting. Holes are not considered.
func (g *Geofence) Contains(lat, lng float64) bool {
	p, err := g.Polygon()
	if err != nil || len(p.Coordinates) == 0 {
		return false
	}
	ring := p.Coordinates[0]
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// GeofenceAlert records a vehicle entering or leaving a geofence. Each alert
// references exactly one geofence and one vehicle.
type GeofenceAlert struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	GeofenceID uuid.UUID `gorm:"type:uuid;not null;index" json:"geofence_id"`
	VehicleID  uint      `gorm:"not null;index" json:"vehicle_id"`
	AlertType  string    `gorm:"type:varchar(10);not null" json:"alert_type"` // enter, exit
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`

	CreatedAt time.Time `json:"-"`
}

func (GeofenceAlert) TableName() string { return "geofence_alerts" }

func (a *GeofenceAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
