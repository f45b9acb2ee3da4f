package controllers

import (
	"net/http"

	"github.com/gymstore/backend/api/responses"
	dashsvc "github.com/gymstore/backend/internal/dashboard"
	"github.com/gymstore/backend/pkg/logger"
)

// AdminDashboard serves the aggregate summary for the admin home screen.
func AdminDashboard(svc *dashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
