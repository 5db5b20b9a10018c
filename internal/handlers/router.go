package handlers

import (
	"net/http"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/middleware"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
)

// The physical deployment surface: a small fixed set of entry points, each
// one a bare mount of the same dispatcher. The logical surface grows in
// Routes, this list only grows when a genuinely new path prefix appears
var entryPoints = []string{
	"/auth/",
	"/businesses/",
	"/internal/",
	"/cards/",
	"/customers/",
	"/business/",
	"/admin/",
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts the gateway dispatcher on every physical entry point.
// The entry points perform only dispatch, never per-entry-point logic
func NewRouter(dispatcher http.Handler, l logger.Logger) http.Handler {
	root := http.NewServeMux()
	for _, prefix := range entryPoints {
		root.Handle(prefix, dispatcher)
	}

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}
