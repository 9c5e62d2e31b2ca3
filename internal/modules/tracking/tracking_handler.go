package tracking

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"order-tracking/internal/logging"
	"order-tracking/internal/models"
	"order-tracking/pkg/utils"
)

// Handler exposes the tracking service over HTTP and WebSocket.
type Handler struct {
	svc     ServiceInterface
	rooms   *RoomBroadcaster
	origins []string
}

// NewHandler creates a tracking handler. origins lists the browser origins
// allowed to open a tracking socket; "*" allows any.
func NewHandler(svc ServiceInterface, rooms *RoomBroadcaster, origins ...string) *Handler {
	return &Handler{svc: svc, rooms: rooms, origins: origins}
}

// RegisterRoutes mounts the tracking endpoints on an authenticated group.
// shipper and staff restrict the write endpoints by role.
func (h *Handler) RegisterRoutes(g *echo.Group, shipper, staff echo.MiddlewareFunc) {
	g.POST("/:orderId/location", h.ReportPosition, shipper)
	g.POST("/:orderId/status", h.ChangeStatus, staff)
	g.GET("/:orderId", h.GetSnapshot)
}

func (h *Handler) ReportPosition(c echo.Context) error {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req models.ReportPositionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	res, err := h.svc.ReportPosition(c.Request().Context(), positionReport(orderID, req.Lat, req.Lng, req.Timestamp, req.Vehicle))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, res)
}

func (h *Handler) GetSnapshot(c echo.Context) error {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}

	info, err := h.svc.GetSnapshot(c.Request().Context(), orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, info)
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req models.StatusChangeRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.ChangeStatus(ctx, orderID, req.Status, req.Message); err != nil {
		return utils.HandleServiceError(c, err)
	}
	logging.Ctx(ctx).Info().
		Str("order_id", orderID).
		Str("status", req.Status).
		Str("user_id", userID).
		Str("role", role).
		Msg("shipment status changed")
	return c.NoContent(http.StatusAccepted)
}

func positionReport(orderID string, lat, lng *float64, ts *time.Time, vehicle string) models.PositionReport {
	report := models.PositionReport{
		OrderID:        orderID,
		VehicleProfile: models.ParseVehicleProfile(vehicle),
	}
	if lat != nil {
		report.Lat = *lat
	}
	if lng != nil {
		report.Lng = *lng
	}
	if ts != nil {
		report.CapturedAt = *ts
	}
	return report
}
