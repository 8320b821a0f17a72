package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/financeiro-leve/ledger-go/internal/backup"
	"github.com/financeiro-leve/ledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Backup export / import
// ============================================================

func backupExportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/backup/export")
		defer span.End()

		artifact, err := svc.ExportBackup(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="backup`+backup.FileExtension+`"`)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, artifact)
	}
}

// backupImportHandler accepts either a JSON body {"artifact": "..."} or
// the raw artifact as text/plain, matching how the file is exported.
func backupImportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/backup/import")
		defer span.End()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		artifact := string(raw)
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			var req struct {
				Artifact string `json:"artifact"`
			}
			if err := json.Unmarshal(raw, &req); err != nil || req.Artifact == "" {
				writeError(w, http.StatusBadRequest, "artifact is required")
				return
			}
			artifact = req.Artifact
		}

		if err := svc.ImportBackup(ctx, artifact); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
	}
}
