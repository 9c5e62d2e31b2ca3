package tracking

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"order-tracking/internal/logging"
	"order-tracking/internal/models"
	"order-tracking/pkg/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// DefaultQueueCapacity is the per-socket outbound buffer.
	DefaultQueueCapacity = 256

	// Inbound messages per second and burst allowed on one socket.
	messageRate  = 10
	messageBurst = 20

	// Position reports waiting for the socket's worker.
	reportBacklog = 16
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin admits non-browser clients (no Origin header) and the
// configured browser origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}

// ServeSocket upgrades the request and serves one tracking socket until the
// peer disconnects.
func (h *Handler) ServeSocket(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	up := h.upgrader()
	conn, err := up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(c.Request().Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := &socketClient{
		sub:      NewQueueSubscriber(uuid.NewString(), DefaultQueueCapacity),
		conn:     conn,
		svc:      h.svc,
		rooms:    h.rooms,
		userID:   userID,
		userRole: role,
		limiter:  rate.NewLimiter(messageRate, messageBurst),
		reports:  make(chan models.PositionReport, reportBacklog),
	}
	logging.Debug().Str("subscriber", client.sub.ID()).Str("user_id", userID).Msg("tracking socket opened")

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.writePump()
	}()
	client.readPump(logging.ContextWithRequestID(context.Background(), client.sub.ID()))
	<-done
	return nil
}

// socketClient connects one websocket to the room broadcaster.
type socketClient struct {
	sub      *QueueSubscriber
	conn     *websocket.Conn
	svc      ServiceInterface
	rooms    *RoomBroadcaster
	userID   string
	userRole string
	limiter  *rate.Limiter
	reports  chan models.PositionReport
}

// readPump reads client messages until the peer goes away. Position reports
// run on a worker so reading continues during provider calls; a disconnect
// cancels the report in flight.
func (c *socketClient) readPump(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	worker := make(chan struct{})
	go func() {
		defer close(worker)
		c.reportLoop(ctx)
	}()

	defer func() {
		cancel()
		close(c.reports)
		<-worker
		c.rooms.LeaveAll(c.sub)
		c.sub.Close()
		logging.Debug().Str("subscriber", c.sub.ID()).Str("user_id", c.userID).Msg("tracking socket closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.SocketMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("subscriber", c.sub.ID()).Msg("unexpected websocket close")
			}
			return
		}
		if !c.limiter.Allow() {
			c.fail(msg.OrderID, "rate limit exceeded")
			continue
		}
		c.handle(msg)
	}
}

func (c *socketClient) handle(msg models.SocketMessage) {
	orderID := strings.TrimSpace(msg.OrderID)
	switch msg.Action {
	case models.ActionPing:
		c.sub.Deliver(models.TrackingEvent{Type: models.EventPong, EventPayload: models.EventPayload{Timestamp: time.Now()}})
	case models.ActionJoin:
		if orderID == "" {
			c.fail("", "orderId is required")
			return
		}
		role := models.ParseSubscriberRole(msg.Role)
		if role == models.RoleShipper && c.userRole != models.UserRoleShipper {
			role = models.RoleCustomer
		}
		c.rooms.Join(orderID, c.sub, role)
	case models.ActionLeave:
		if orderID == "" {
			c.fail("", "orderId is required")
			return
		}
		c.rooms.Leave(orderID, c.sub)
	case models.ActionPosition:
		if c.userRole != models.UserRoleShipper {
			c.fail(orderID, "only shippers can report positions")
			return
		}
		if orderID == "" || msg.Lat == nil || msg.Lng == nil {
			c.fail(orderID, "orderId, lat and lng are required")
			return
		}
		select {
		case c.reports <- positionReport(orderID, msg.Lat, msg.Lng, msg.Timestamp, msg.Vehicle):
		default:
			c.fail(orderID, "too many pending position reports")
		}
	default:
		c.fail(orderID, "unknown action")
	}
}

// reportLoop applies this socket's position reports in arrival order and
// answers each one with a positionReported event.
func (c *socketClient) reportLoop(ctx context.Context) {
	for report := range c.reports {
		if ctx.Err() != nil {
			continue
		}
		res, err := c.svc.ReportPosition(ctx, report)
		if err != nil {
			if ctx.Err() == nil {
				c.fail(report.OrderID, err.Error())
			}
			continue
		}
		c.sub.Deliver(models.TrackingEvent{
			Type:         models.EventPositionReported,
			OrderID:      report.OrderID,
			EventPayload: models.EventPayload{Result: res, Timestamp: time.Now()},
		})
	}
}

// fail sends an error event to this socket only.
func (c *socketClient) fail(orderID, message string) {
	c.sub.Deliver(models.TrackingEvent{
		Type:         models.EventError,
		OrderID:      orderID,
		EventPayload: models.EventPayload{Message: message, Timestamp: time.Now()},
	})
}

func (c *socketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.sub.Events():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				logging.Debug().Err(err).Str("subscriber", c.sub.ID()).Msg("failed to write event")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
