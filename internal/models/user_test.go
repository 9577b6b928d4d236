package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPermissionsFor(t *testing.T) {
	assert.Equal(t, []string{"*"}, PermissionsFor(RoleAdmin))
	assert.Contains(t, PermissionsFor(RoleManager), "*:delete")
	assert.NotContains(t, PermissionsFor(RoleUser), "*:delete")
	assert.Equal(t, []string{"*:read"}, PermissionsFor(RoleGuest))
	assert.Nil(t, PermissionsFor(Role("intruder")))
}

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"admin wildcard", []string{"*"}, "vehicle:delete", true},
		{"exact match", []string{"vehicle:read"}, "vehicle:read", true},
		{"resource wildcard", []string{"vehicle:*"}, "vehicle:update", true},
		{"action wildcard", []string{"*:read"}, "driver:read", true},
		{"action wildcard does not grant writes", []string{"*:read"}, "driver:create", false},
		{"unrelated resource", []string{"vehicle:read"}, "driver:read", false},
		{"empty set", nil, "vehicle:read", false},
		{"malformed requirement", []string{"*"}, "vehicle", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.perms, tc.required))
		})
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		TenantID: uuid.New(),
		Email:    "new@fleet.test",
		Password: "longenough",
	}
	assert.Empty(t, valid.Validate())

	bad := RegisterRequest{Email: "not-an-email", Password: "short", Role: "superhero"}
	errs := bad.Validate()
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["role"])
	assert.True(t, fields["tenant_id"])
}
