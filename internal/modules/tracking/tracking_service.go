package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// OrderRepository is the read-only view of orders and shipping logs the
// tracking module depends on.
type OrderRepository interface {
	// GetShippingAddress returns the delivery address, "" when none is set.
	GetShippingAddress(ctx context.Context, orderID string) (string, error)
	// GetActiveShipment returns the latest shipping log whose status is in statuses.
	GetActiveShipment(ctx context.Context, orderID string, statuses []string) (*models.Shipment, error)
}

// StatusNotifier tells a customer about a shipment status change.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, to string, shipment *models.Shipment, message string) error
}

// ServiceInterface is the tracking use case surface used by the handlers.
type ServiceInterface interface {
	ReportPosition(ctx context.Context, report models.PositionReport) (*models.PositionResult, error)
	ChangeStatus(ctx context.Context, orderID, status, message string) error
	GetSnapshot(ctx context.Context, orderID string) (*models.TrackingInfo, error)
}

// Orchestrator handles shipper position reports and status changes.
type Orchestrator struct {
	cache     *LocationCache
	resolver  *GeocodeResolver
	estimator *RouteEstimator
	rooms     *RoomBroadcaster
	repo      OrderRepository
	notifier  StatusNotifier
	now       func() time.Time

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// NewOrchestrator wires the write path. notifier may be nil.
func NewOrchestrator(cache *LocationCache, resolver *GeocodeResolver, estimator *RouteEstimator, rooms *RoomBroadcaster, repo OrderRepository, notifier StatusNotifier) *Orchestrator {
	return &Orchestrator{
		cache:         cache,
		resolver:      resolver,
		estimator:     estimator,
		rooms:         rooms,
		repo:          repo,
		notifier:      notifier,
		now:           time.Now,
		notifyTimeout: 10 * time.Second,
	}
}

// ReportPosition records a shipper position, computes the ETA to the
// customer and broadcasts shipperMoved then updateETA to the order's room.
//
// The cache is written before the customer location is resolved, so a
// failed report still leaves the position cached.
func (o *Orchestrator) ReportPosition(ctx context.Context, report models.PositionReport) (*models.PositionResult, error) {
	position := models.GeoPoint{Lat: report.Lat, Lng: report.Lng}
	if !position.Valid() {
		metrics.PositionReports.WithLabelValues("invalid").Inc()
		return nil, models.ErrInvalidCoordinates
	}
	capturedAt := report.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = o.now()
	}
	profile := report.VehicleProfile
	if profile == "" {
		profile = models.VehicleBike
	}

	o.cache.Set(report.OrderID, report.Lat, report.Lng, profile, capturedAt)

	customer, err := o.resolver.Resolve(ctx, report.OrderID, o.repo)
	if err != nil {
		metrics.PositionReports.WithLabelValues("no_destination").Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrCustomerLocationUnknown, err)
	}

	// A missing ETA is not fatal; the position is still broadcast.
	eta, _ := o.estimator.Estimate(ctx, position, customer.Point(), profile)

	o.rooms.Publish(report.OrderID, models.EventShipperMoved, models.EventPayload{
		Location:  &position,
		Timestamp: capturedAt,
	})
	if eta != nil {
		o.rooms.Publish(report.OrderID, models.EventUpdateETA, models.EventPayload{
			ETA:       eta.Payload(),
			Timestamp: capturedAt,
		})
	}

	metrics.PositionReports.WithLabelValues("ok").Inc()
	return &models.PositionResult{
		OrderID:  report.OrderID,
		Location: models.TimedLocation{Lat: report.Lat, Lng: report.Lng, Timestamp: capturedAt},
		ETA:      eta,
	}, nil
}

// ChangeStatus broadcasts statusChanged and, when a notifier is set, mails
// the customer in the background.
func (o *Orchestrator) ChangeStatus(ctx context.Context, orderID, status, message string) error {
	if status == "" {
		return errors.New("service.ChangeStatus: status is required")
	}
	ts := o.now()
	o.rooms.Publish(orderID, models.EventStatusChanged, models.EventPayload{
		Status:    status,
		Message:   message,
		Timestamp: ts,
	})

	if o.notifier == nil {
		return nil
	}
	requestID := logging.RequestIDFromContext(ctx)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		nctx, cancel := context.WithTimeout(logging.ContextWithRequestID(context.Background(), requestID), o.notifyTimeout)
		defer cancel()
		o.notify(nctx, orderID, status, message)
	}()
	return nil
}

func (o *Orchestrator) notify(ctx context.Context, orderID, status, message string) {
	shipment, err := o.repo.GetActiveShipment(ctx, orderID, allShipmentStatuses)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("status notification: shipment lookup failed")
		}
		return
	}
	if shipment.Customer.Email == "" {
		return
	}
	shipment.Status = status
	if err := o.notifier.NotifyStatusChange(ctx, shipment.Customer.Email, shipment, message); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("status notification failed")
	}
}

// Close waits for background notifications to finish.
func (o *Orchestrator) Close() {
	o.pending.Wait()
}

var allShipmentStatuses = []string{
	models.ShipmentPending, models.ShipmentPickedUp, models.ShipmentInTransit,
	models.ShipmentDelivering, models.ShipmentDelivered, models.ShipmentCancelled, models.ShipmentFailed,
}

// Service combines the write and read paths behind ServiceInterface.
type Service struct {
	*Orchestrator
	*QueryService
}

// NewService creates the tracking service facade.
func NewService(o *Orchestrator, q *QueryService) *Service {
	return &Service{Orchestrator: o, QueryService: q}
}
