package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Musanse/shiteni-sub006/internal/broadcast"
	"github.com/Musanse/shiteni-sub006/internal/cache"
	"github.com/Musanse/shiteni-sub006/internal/identity"
	"github.com/Musanse/shiteni-sub006/internal/models"
	"github.com/Musanse/shiteni-sub006/internal/service"
)

type Server struct {
	svc      *service.MessageService
	broker   *broadcast.Broker
	presence *cache.Client
	log      *zap.SugaredLogger
}

func NewServer(svc *service.MessageService, broker *broadcast.Broker, presence *cache.Client, log *zap.SugaredLogger) *Server {
	return &Server{svc: svc, broker: broker, presence: presence, log: log}
}

// Handler opens the live channel: the connection subscribes to the caller's
// own channel and, for staff, the business unit's channel, then streams
// message events until the client goes away.
func (s *Server) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		// Locals survive the upgrade; set by the auth middleware
		caller, ok := conn.Locals("caller").(identity.Caller)
		if !ok || caller.ID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		me, err := s.svc.ResolveCaller(ctx, caller)
		cancel()
		if err != nil {
			s.log.Warnw("ws caller resolve failed", "caller", caller.ID, "err", err)
			return
		}

		channels := []string{me.PartyID}
		if me.Kind == models.KindStaff && me.StaffID != me.PartyID {
			channels = append(channels, me.StaffID)
		}

		c := newConnection(conn)
		subs := make([]*broadcast.Subscription, 0, len(channels))
		for _, ch := range channels {
			sub := s.broker.Subscribe(ch)
			subs = append(subs, sub)
			go c.forward(sub)
		}
		if s.presence != nil {
			_ = s.presence.SetPresence(context.Background(), me.PartyID, true)
		}
		s.log.Infow("live channel opened", "party", me.PartyID, "kind", me.Kind.String())

		go c.writePump()
		c.readPump() // returns on disconnect

		// unregister before any further publish can reference this connection
		for _, sub := range subs {
			sub.Close()
		}
		c.close()
		if s.presence != nil && s.broker.Subscribers(me.PartyID) == 0 {
			_ = s.presence.SetPresence(context.Background(), me.PartyID, false)
		}
		s.log.Infow("live channel closed", "party", me.PartyID)
	}
}
