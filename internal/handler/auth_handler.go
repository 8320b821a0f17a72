package handler

import (
	"encoding/json"
	"net/http"

	"github.com/financeiro-leve/ledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Auth & sync
// ============================================================

func authGoogleHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/google")
		defer span.End()

		var req struct {
			IDToken string `json:"idToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IDToken == "" {
			writeError(w, http.StatusBadRequest, "idToken is required")
			return
		}

		resp, err := authSvc.LoginWithGoogle(ctx, req.IDToken)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authMeHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/auth/me")
		defer span.End()

		user, err := authSvc.CurrentUser(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, "no authenticated user")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func authLogoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		if err := authSvc.Logout(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func syncPullHandler(finSvc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sync/pull")
		defer span.End()

		userID := UserIDFromContext(ctx)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}

		if err := finSvc.PullRemote(ctx, userID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "pulled"})
	}
}
