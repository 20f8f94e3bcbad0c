package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/pkg/clients"
	"gocatalog_api/pkg/logger"
)

type SyncService interface {
	Start(ctx context.Context, connectionID string, forceSync bool) (int, error)
	Progress(ctx context.Context, connectionID string) (models.SyncProgress, bool, error)
	Stop(ctx context.Context, connectionID string) (bool, error)
}

type SyncHandler struct {
	service SyncService
	log     *zap.Logger
}

func NewSyncHandler(service SyncService, log *zap.Logger) *SyncHandler {
	return &SyncHandler{service: service, log: logger.Nop(log).Named("sync-handler")}
}

// Register вешает эндпоинты синхронизации на группу /connections.
func (h *SyncHandler) Register(g *echo.Group) {
	g.POST("/:id/sync", h.StartSync)
	g.GET("/:id/sync", h.GetProgress)
	g.POST("/:id/sync/stop", h.StopSync)
}

// StartSync отвечает сразу после листинга, синхронизация продолжается в фоне.
func (h *SyncHandler) StartSync(c echo.Context) error {
	connectionID := c.Param("id")

	var req request.SyncStart
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	total, err := h.service.Start(c.Request().Context(), connectionID, req.ForceSync)
	if err != nil {
		status := startStatus(err)
		h.log.Warn("sync not started", zap.String("connection_id", connectionID),
			zap.Int("status", status), zap.Error(err))
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	h.log.Info("sync started", zap.String("connection_id", connectionID),
		zap.Int("total", total), zap.Bool("force_sync", req.ForceSync))
	return c.JSON(http.StatusAccepted, echo.Map{"total": total})
}

func (h *SyncHandler) GetProgress(c echo.Context) error {
	p, ok, err := h.service.Progress(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.log.Error("failed to read progress", zap.String("connection_id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read progress"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no sync run for this connection"})
	}
	return c.JSON(http.StatusOK, p)
}

func (h *SyncHandler) StopSync(c echo.Context) error {
	found, err := h.service.Stop(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.log.Error("failed to request stop", zap.String("connection_id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to request stop"})
	}
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no sync run for this connection"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"stopping": true})
}

func startStatus(err error) int {
	var cfgErr *models.ConfigurationError
	var transportErr *clients.TransportError
	switch {
	case errors.Is(err, models.ErrUnknownConnection):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoProducts), errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
