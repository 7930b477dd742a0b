package endpoints

import (
	"errors"
	"net/http"
)

const (
	API_SUCCESS = iota + 303000 // 303000
	API_FAILURE                 // 303001 - Generic API failure
)

const (
	ROUTE_NOT_FOUND    = iota + 101 // 101 - No handler for the requested path
	METHOD_NOT_ALLOWED              // 102 - Path exists but only GET is served
	RATE_LIMITED                    // 103 - Client exceeded the inbound request rate
)

var (
	ErrRouteNotFound    = errors.New("route not found; available metrics are served under /metrics/{name}")
	ErrMethodNotAllowed = errors.New("method Not Allowed. Only GET requests are supported")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrRouteNotFound):
		return ROUTE_NOT_FOUND
	case errors.Is(err, ErrMethodNotAllowed):
		return METHOD_NOT_ALLOWED
	case errors.Is(err, ErrRateLimited):
		return RATE_LIMITED
	default:
		return API_FAILURE
	}
}

func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		APIResponse{}.WriteErrorResponseWithStatusCode(w, ErrRouteNotFound, http.StatusNotFound)
	})
}

func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		APIResponse{}.WriteErrorResponseWithStatusCode(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	})
}
