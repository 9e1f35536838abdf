package ctxutil

import "context"

type authDataKey struct{}

// AuthData describes the caller admitted by the auth middleware.
type AuthData struct {
	// Role is "anon" for the shared anon key, otherwise the JWT role claim.
	Role    string
	Subject string
}

func WithAuthData(ctx context.Context, ad *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, ad)
}

func GetAuthData(ctx context.Context) *AuthData {
	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		return ad
	}
	return nil
}
