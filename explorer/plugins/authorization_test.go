package plugins

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationPlugin(t *testing.T) {
	plugin := AuthorizationPlugin("X-Explorer-Authorized", "X-Explorer-User")
	req := httptest.NewRequest("GET", "/api/v1/explore", nil)
	req.Header.Set("X-Explorer-Authorized", "1, 2,3")
	req.Header.Set("X-Explorer-User", "alice")

	ctx, err := plugin(context.Background(), req)
	require.NoError(t, err)
	auth := GetAuthorization(ctx)
	assert.Equal(t, "alice", auth.User)
	for _, id := range []string{"1", "2", "3"} {
		assert.True(t, auth.Permits(id), id)
	}
	assert.False(t, auth.Permits("4"))
}

func TestAuthorizationPluginWithoutHeader(t *testing.T) {
	plugin := AuthorizationPlugin("X-Explorer-Authorized", "X-Explorer-User")
	ctx, err := plugin(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.True(t, GetAuthorization(ctx).Empty())
	assert.True(t, GetAuthorization(context.Background()).Empty())
}
