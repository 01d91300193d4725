package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	assert.True(t, Allow([]string{"admin"}, PermKeyRotate))
	assert.True(t, Allow([]string{"owner"}, PermKeyRotate))
	assert.True(t, Allow([]string{"owner"}, PermProjectDelete))
	assert.True(t, Allow([]string{"owner"}, PermAssistantUpdate))
	assert.False(t, Allow([]string{"owner"}, PermAssistantModel))
	assert.True(t, Allow([]string{"viewer"}, PermProjectView))
	assert.False(t, Allow([]string{"viewer"}, PermKeyReveal))
	assert.False(t, Allow([]string{"unknown"}, PermProjectView))
	assert.True(t, Allow([]string{"viewer", "owner"}, PermKeyReveal))
}

func TestMatch(t *testing.T) {
	assert.True(t, match("project:*", "project:create"))
	assert.True(t, match("*:view", "run:view"))
	assert.False(t, match("*:view", "run:delete"))
	assert.False(t, match("project:view", "project:view:extra"))
	assert.False(t, match("apikey:*", "project:view"))
}

func TestCanAccessProject(t *testing.T) {
	assert.True(t, CanAccessProject("owner", 1, 1, PermKeyRotate))
	assert.False(t, CanAccessProject("owner", 1, 2, PermKeyRotate))
	assert.True(t, CanAccessProject("admin", 1, 2, PermKeyRotate))
	assert.False(t, CanAccessProject("viewer", 1, 1, PermKeyRotate))
}
