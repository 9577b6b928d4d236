package models

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// WebhookEndpoint is a tenant-configured URL that receives signed event
// payloads.
type WebhookEndpoint struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	URL      string         `gorm:"type:varchar(500);not null" json:"url"`
	Secret   string         `gorm:"type:text;not null" json:"secret,omitempty"`
	Events   datatypes.JSON `json:"events"` // subscribed event names; empty means all
	IsActive bool           `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WebhookEndpoint) TableName() string { return "webhook_endpoints" }

func (e *WebhookEndpoint) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *WebhookEndpoint) SetTenantID(id uuid.UUID) { e.TenantID = id }

// MarshalJSON hides the signing secret: it is accepted on write but never
// echoed back.
func (e WebhookEndpoint) MarshalJSON() ([]byte, error) {
	type endpoint WebhookEndpoint
	out := endpoint(e)
	out.Secret = ""
	return json.Marshal(out)
}

// SubscribedTo reports whether the endpoint wants the given event.
func (e *WebhookEndpoint) SubscribedTo(event string) bool {
	if len(e.Events) == 0 {
		return true
	}
	var events []string
	if err := json.Unmarshal(e.Events, &events); err != nil {
		return false
	}
	if len(events) == 0 {
		return true
	}
	for _, ev := range events {
		if ev == event || ev == "*" {
			return true
		}
	}
	return false
}

// Validate checks webhook endpoint field constraints.
func (e *WebhookEndpoint) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	u, err := url.Parse(e.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, apierr.FieldError{Field: "url", Message: "must be a valid http(s) URL"})
	}
	if e.Secret == "" {
		errs = append(errs, apierr.FieldError{Field: "secret", Message: "is required"})
	}
	return errs
}
