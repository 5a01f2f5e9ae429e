// Package apiconnect provides Connect handlers and clients for the
// lessonbook.v1 services. Messages are plain Go structs from package api
// carried by api.JSONCodec.
package apiconnect

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/pkg/api"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

// router dispatches a service's procedures by exact path.
type router map[string]http.Handler

func (rt router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}
