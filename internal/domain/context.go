package domain

import "context"

type accessTokenKey struct{}

// WithAccessToken returns a context carrying the caller's access token.
// Backends that authorize per request read it back with AccessTokenFrom.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFrom returns the access token stored in ctx, if any.
func AccessTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
