package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   string
	}{
		{
			name:   "email preferred",
			claims: map[string]any{"email": "a@x.test", "upn": "b@x.test"},
			want:   "a@x.test",
		},
		{
			name:   "upn fallback",
			claims: map[string]any{"upn": "b@x.test", "unique_name": "c@x.test"},
			want:   "b@x.test",
		},
		{
			name:   "unique_name fallback",
			claims: map[string]any{"unique_name": "c@x.test"},
			want:   "c@x.test",
		},
		{
			name:   "non-string ignored",
			claims: map[string]any{"email": 5, "upn": "b@x.test"},
			want:   "b@x.test",
		},
		{
			name:   "nothing usable",
			claims: map[string]any{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmailFromClaims(tt.claims))
		})
	}
}

func TestUserFromClaims(t *testing.T) {
	t.Run("full claims", func(t *testing.T) {
		u := UserFromClaims(map[string]any{
			"sub":     "sub-1",
			"email":   "prof@x.test",
			"name":    "Prof Smith",
			"picture": "https://idp/avatar.png",
		})
		assert.Equal(t, User{
			ID:      "sub-1",
			Email:   "prof@x.test",
			Name:    "Prof Smith",
			Picture: "https://idp/avatar.png",
		}, u)
	})

	t.Run("name falls back to email", func(t *testing.T) {
		u := UserFromClaims(map[string]any{"email": "prof@x.test"})
		assert.Equal(t, "prof@x.test", u.Name)
		assert.Equal(t, "prof@x.test", u.ID)
	})

	t.Run("empty claims get placeholder", func(t *testing.T) {
		u := UserFromClaims(map[string]any{})
		assert.Equal(t, "Staff User", u.Name)
		assert.Equal(t, "Staff User", u.ID)
	})

	t.Run("missing picture gets generated avatar", func(t *testing.T) {
		u := UserFromClaims(map[string]any{"name": "Prof Smith"})
		assert.Equal(t, "https://ui-avatars.com/api/?name=Prof+Smith&size=200", u.Picture)
	})
}

func TestNormalizeStaffUser(t *testing.T) {
	t.Run("sparse record filled", func(t *testing.T) {
		u := NormalizeStaffUser(User{Email: "prof@x.test"})
		assert.Equal(t, "prof@x.test", u.Name)
		assert.Equal(t, "prof@x.test", u.ID)
		assert.NotEmpty(t, u.Picture)
	})

	t.Run("complete record untouched", func(t *testing.T) {
		in := User{ID: "1", Email: "e@x.test", Name: "N", Picture: "p"}
		assert.Equal(t, in, NormalizeStaffUser(in))
	})

	t.Run("fully empty record", func(t *testing.T) {
		u := NormalizeStaffUser(User{})
		assert.Equal(t, "Staff User", u.Name)
		assert.Equal(t, "staff", u.ID)
	})
}
