package router

import (
	"net/http"

	"github.com/centrumkenaz/backend/internal/auth"
	"github.com/centrumkenaz/backend/internal/middleware"
	"github.com/centrumkenaz/backend/internal/workbench"
)

// New returns an http.Handler serving the console API under /api/v1.
// Workbench routes are gated to admin operators; auth routes are open.
func New(authHandler *auth.Handler, wbHandler *workbench.Handler, authSvc auth.Service) http.Handler {
	mux := http.NewServeMux()
	const base = "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	admin := middleware.OperatorAuth(authSvc, true)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, admin(h))
	}

	handle("GET "+base+"/workbench/views", wbHandler.ListViews)
	handle("PUT "+base+"/workbench/view", wbHandler.SelectView)
	handle("GET "+base+"/workbench/views/{view}/rows", wbHandler.Rows)
	handle("POST "+base+"/workbench/views/{view}/sort", wbHandler.ToggleSort)
	handle("PATCH "+base+"/workbench/tasks/{id}/draft", wbHandler.PatchDraft)
	handle("POST "+base+"/workbench/tasks/{id}/stage", wbHandler.Stage)
	handle("GET "+base+"/workbench/confirmation", wbHandler.PendingConfirmation)
	handle("POST "+base+"/workbench/confirmations/{id}", wbHandler.Confirm)
	handle("DELETE "+base+"/workbench/confirmations/{id}", wbHandler.Cancel)
	handle("GET "+base+"/workbench/audit", wbHandler.Audit)

	return mux
}
