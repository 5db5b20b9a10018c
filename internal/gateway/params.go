package gateway

import (
	"context"
)

type ctxKey string

const paramsKey ctxKey = "routeParams"

// NewContextWithParams stores captured path parameters in the context
func NewContextWithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey, params)
}

// Param returns the named path capture of the matched route, if any
func Param(ctx context.Context, name string) (string, bool) {
	params, ok := ctx.Value(paramsKey).(map[string]string)
	if !ok {
		return "", false
	}

	value, ok := params[name]
	return value, ok
}
