// Package orders reads order and shipping log rows for the tracking module.
//
// Tables used:
//
//	orders(id, customer_name, customer_phone, customer_email, shipping_address)
//	shipping_logs(id, order_id, shipper_id, status, created_at)
//	shippers(id, name, phone, vehicle_plate)
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-tracking/internal/models"
)

// querier is the subset of pgxpool.Pool the repository uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is a read-only PostgreSQL view of orders and shipments.
type Repository struct {
	db querier
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetShippingAddress returns the delivery address of an order, "" when the
// order has none.
func (r *Repository) GetShippingAddress(ctx context.Context, orderID string) (string, error) {
	query := `SELECT COALESCE(shipping_address, '') FROM orders WHERE id = $1`

	var address string
	if err := r.db.QueryRow(ctx, query, orderID).Scan(&address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("repository.GetShippingAddress: %w", err)
	}
	return address, nil
}

// GetActiveShipment returns the latest shipping log of the order if its
// status is one of statuses, together with the assigned shipper and the
// order's customer.
func (r *Repository) GetActiveShipment(ctx context.Context, orderID string, statuses []string) (*models.Shipment, error) {
	query := `
		SELECT l.order_id, l.status, l.created_at,
		       s.id, s.name, s.phone, s.vehicle_plate,
		       COALESCE(o.customer_name, ''), COALESCE(o.customer_phone, ''),
		       COALESCE(o.customer_email, ''), COALESCE(o.shipping_address, '')
		FROM (
			SELECT order_id, shipper_id, status, created_at
			FROM shipping_logs
			WHERE order_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) l
		JOIN orders o ON o.id = l.order_id
		LEFT JOIN shippers s ON s.id = l.shipper_id
		WHERE l.status = ANY($2)`

	var (
		shipment models.Shipment
		agentID  *string
		name     *string
		phone    *string
		plate    *string
	)
	err := r.db.QueryRow(ctx, query, orderID, statuses).Scan(
		&shipment.OrderID,
		&shipment.Status,
		&shipment.UpdatedAt,
		&agentID,
		&name,
		&phone,
		&plate,
		&shipment.Customer.Name,
		&shipment.Customer.Phone,
		&shipment.Customer.Email,
		&shipment.Customer.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetActiveShipment: %w", err)
	}

	if agentID != nil {
		shipment.Agent = &models.AgentInfo{
			ID:           *agentID,
			Name:         deref(name),
			Phone:        deref(phone),
			VehiclePlate: deref(plate),
		}
	}
	return &shipment, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
