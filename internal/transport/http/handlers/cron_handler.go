package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/dto"
	httperrors "github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/errors"
)

type BatchRunner interface {
	ProcessBatch(ctx context.Context) (pipeline.Summary, error)
}

// CronHandler exposes the batch moderation run to an external
// scheduler. The caller authenticates with a shared secret rather
// than a user session.
type CronHandler struct {
	runner BatchRunner
	secret string
	logger *zap.Logger
}

func NewCronHandler(runner BatchRunner, secret string, logger *zap.Logger) *CronHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronHandler{
		runner: runner,
		secret: strings.TrimSpace(secret),
		logger: logger,
	}
}

func (h *CronHandler) ProcessModeration(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("cron secret is not configured")
		writeInternal(w, "CRON_NOT_CONFIGURED", "cron secret is not configured")
		return
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		writeUnauthorized(w, "UNAUTHORIZED", "invalid cron secret")
		return
	}

	if h.runner == nil {
		writeInternal(w, "PIPELINE_UNAVAILABLE", "moderation pipeline is unavailable")
		return
	}

	summary, err := h.runner.ProcessBatch(r.Context())
	if err != nil {
		h.logger.Error("batch moderation run failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "batch moderation run failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CronRunResponse{
		Success: true,
		Result:  summary,
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}
