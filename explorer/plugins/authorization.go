package plugins

import (
	"context"
	"net/http"
	"strings"

	"github.com/podlake/explorer/explorer/composition"
)

type authorizationKey struct{}

// AuthorizationPlugin reads the caller's permitted IDs and user name from the
// headers set by the fronting auth proxy. A missing header permits nothing.
func AuthorizationPlugin(idsHeader, userHeader string) PreRequestPlugin {
	return func(ctx context.Context, req *http.Request) (context.Context, error) {
		var ids []string
		for _, v := range req.Header.Values(idsHeader) {
			for _, id := range strings.Split(v, ",") {
				ids = append(ids, strings.TrimSpace(id))
			}
		}
		auth := composition.NewAuthorization(req.Header.Get(userHeader), ids...)
		return WithAuthorization(ctx, auth), nil
	}
}

func WithAuthorization(ctx context.Context, auth composition.Authorization) context.Context {
	return context.WithValue(ctx, authorizationKey{}, auth)
}

// GetAuthorization returns the zero Authorization when no plugin ran.
func GetAuthorization(ctx context.Context) composition.Authorization {
	if auth, ok := ctx.Value(authorizationKey{}).(composition.Authorization); ok {
		return auth
	}
	return composition.Authorization{}
}
