package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-tracking/internal/logging"
	"order-tracking/internal/models"
)

// QueryService assembles tracking snapshots for pull clients.
type QueryService struct {
	cache     *LocationCache
	resolver  *GeocodeResolver
	estimator *RouteEstimator
	repo      OrderRepository
	now       func() time.Time
}

// NewQueryService wires the read path. It shares the cache and resolver
// with the Orchestrator.
func NewQueryService(cache *LocationCache, resolver *GeocodeResolver, estimator *RouteEstimator, repo OrderRepository) *QueryService {
	return &QueryService{
		cache:     cache,
		resolver:  resolver,
		estimator: estimator,
		repo:      repo,
		now:       time.Now,
	}
}

// GetSnapshot returns the current tracking state of an in-flight order.
// Missing location or ETA leave the corresponding fields nil.
func (q *QueryService) GetSnapshot(ctx context.Context, orderID string) (*models.TrackingInfo, error) {
	shipment, err := q.repo.GetActiveShipment(ctx, orderID, models.InFlightStatuses)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoActiveShipment
		}
		return nil, fmt.Errorf("service.GetSnapshot: %w", err)
	}

	info := &models.TrackingInfo{
		OrderID:        orderID,
		ShipmentStatus: shipment.Status,
		AssignedAgent:  shipment.Agent,
		CustomerInfo:   shipment.Customer,
	}

	snapshot, ok := q.cache.Get(orderID, q.now())
	if ok {
		info.CurrentLocation = &snapshot
	}

	customer, err := q.resolver.Resolve(ctx, orderID, q.repo)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("order_id", orderID).Msg("snapshot without customer coordinates")
		return info, nil
	}

	if info.CurrentLocation != nil {
		profile := snapshot.VehicleProfile
		if profile == "" {
			profile = models.VehicleBike
		}
		if eta, err := q.estimator.Estimate(ctx, snapshot.Point(), customer.Point(), profile); err == nil {
			info.ETA = eta
		}
	}
	return info, nil
}
