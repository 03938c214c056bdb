package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/metrics"
	"github.com/lazypower/scrapbook/internal/storage"
)

type uploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

// countingPresigner records every URL it issues.
type countingPresigner struct {
	storage.Presigner
	m *metrics.Collector
}

func (c countingPresigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := c.Presigner.PresignGet(ctx, key, ttl)
	if err == nil {
		c.m.PresignedURLs.WithLabelValues(http.MethodGet).Inc()
	}
	return u, err
}

func (c countingPresigner) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	u, err := c.Presigner.PresignPut(ctx, key, contentType, ttl)
	if err == nil {
		c.m.PresignedURLs.WithLabelValues(http.MethodPut).Inc()
	}
	return u, err
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.ContentType) == "" {
		writeError(w, http.StatusBadRequest, "missing file info")
		return
	}
	if s.presigner == nil {
		writeError(w, http.StatusServiceUnavailable, storage.ErrNotConfigured.Error())
		return
	}

	key := storage.UploadKey(s.cfg.Storage.KeyPrefix, s.now(), req.FileName)
	p := countingPresigner{s.presigner, s.metrics}
	u, err := p.PresignPut(r.Context(), key, req.ContentType, s.cfg.Storage.PutTTL)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.log.Error("upload url", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create upload url")
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{UploadURL: u, Key: key})
}
