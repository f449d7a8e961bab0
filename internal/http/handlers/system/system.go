// Package system serves the endpoints that are not part of the student
// resource: the root liveness message and the load balancer health probe.
package system

import (
	"net/http"

	"github.com/aanand-mishra/students-api/internal/utils/response"
)

// RootMessage is returned by GET /.
const RootMessage = "students-api is running"

// Root handles GET /
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
	}
}

// Health handles GET /health. It does not touch storage, so a slow
// database never fails the probe.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}
