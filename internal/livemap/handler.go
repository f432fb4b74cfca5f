// Package livemap drives browser map engines over websockets. Each
// connection gets a view.Session whose surface engine and sink are the
// connection itself.
package livemap

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
	"github.com/sells-group/storemap/internal/interact"
	"github.com/sells-group/storemap/internal/metrics"
	"github.com/sells-group/storemap/internal/view"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameBytes = 16 << 10
)

// Settings configures every session the handler starts.
type Settings struct {
	AccessToken     string
	StyleURL        string
	Session         view.Options
	EventsPerSecond float64
	EventBurst      int
	OutboxSize      int
	AllowedOrigins  []string
}

// Handler upgrades /ws/map requests and runs one session per connection.
type Handler struct {
	ds       *geodata.Dataset
	options  *derive.Options
	settings Settings
	upgrader websocket.Upgrader

	base context.Context
	stop context.CancelFunc
}

// NewHandler creates a Handler serving ds.
func NewHandler(ds *geodata.Dataset, settings Settings) *Handler {
	if settings.OutboxSize <= 0 {
		settings.OutboxSize = 256
	}
	if settings.EventsPerSecond <= 0 {
		settings.EventsPerSecond = 60
	}
	if settings.EventBurst <= 0 {
		settings.EventBurst = int(settings.EventsPerSecond)
	}
	base, stop := context.WithCancel(context.Background())
	h := &Handler{
		ds:       ds,
		options:  derive.NewOptions(ds),
		settings: settings,
		base:     base,
		stop:     stop,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 32 << 10,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Close ends every running session. Hijacked connections are not tracked
// by http.Server.Shutdown, so the server calls this on shutdown.
func (h *Handler) Close() {
	h.stop()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.settings.AllowedOrigins) == 0 || slices.Contains(h.settings.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.settings.AllowedOrigins, origin)
}

// ServeHTTP runs a session until the client disconnects or the handler
// closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Debug("livemap: upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	log := zap.L().With(zap.String("component", "livemap"), zap.String("session", id))

	ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := ws.WriteJSON(OutFrame{Type: FrameConfig, Payload: h.configPayload(id)}); err != nil {
		log.Debug("livemap: write config failed", zap.Error(err))
		ws.Close() //nolint:errcheck
		return
	}

	metrics.SessionsTotal.Inc()
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	log.Info("livemap: session started", zap.String("remote", r.RemoteAddr))

	out := make(chan []byte, h.settings.OutboxSize)
	done := make(chan struct{})
	conn := NewConn(out, done)
	session := view.NewSession(id, h.ds, h.options, conn, conn, h.settings.Session)
	limiter := rate.NewLimiter(rate.Limit(h.settings.EventsPerSecond), h.settings.EventBurst)

	g, ctx := errgroup.WithContext(h.base)
	g.Go(func() error {
		<-ctx.Done()
		close(done)
		return nil
	})
	g.Go(func() error { return session.Run(ctx) })
	g.Go(func() error { return writePump(ctx, ws, out) })
	g.Go(func() error { return readPump(ctx, ws, session, limiter, log) })

	err = g.Wait()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		log.Info("livemap: session ended with error", zap.Error(err))
		return
	}
	log.Info("livemap: session ended")
}

func (h *Handler) configPayload(id string) map[string]any {
	divisions := []string{string(geodata.DivisionAll)}
	for _, d := range geodata.Divisions {
		divisions = append(divisions, string(d))
	}
	national := h.settings.Session.Camera.National
	if national.IsZero() {
		national = camera.NationalBounds
	}
	return map[string]any{
		"session":      id,
		"access_token": h.settings.AccessToken,
		"style_url":    h.settings.StyleURL,
		"zoom":         h.settings.Session.InitialZoom,
		"bounds": [2][2]float64{
			{national.Min.Lon(), national.Min.Lat()},
			{national.Max.Lon(), national.Max.Lat()},
		},
		"store_zoom_threshold": h.settings.Session.StoreZoomThreshold,
		"divisions":            divisions,
		"periods":              interact.Periods,
		"period":               h.settings.Session.Period,
		"legend":               health.Legend(),
	}
}

// readPump turns client frames into session events, throttled by limiter.
// Waiting on the limiter applies backpressure instead of dropping events.
func readPump(ctx context.Context, ws *websocket.Conn, s *view.Session, limiter *rate.Limiter, log *zap.Logger) error {
	ws.SetReadLimit(maxFrameBytes)
	ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck

		ev, err := DecodeEvent(data)
		if err != nil {
			log.Debug("livemap: dropping bad frame", zap.Error(err))
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if err := s.Send(ctx, ev); err != nil {
			return nil
		}
	}
}

// writePump drains the outbox and keeps the connection alive with pings.
// It closes the socket on exit, which also unblocks readPump.
func writePump(ctx context.Context, ws *websocket.Conn, out <-chan []byte) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close() //nolint:errcheck
	}()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)) //nolint:errcheck
			return nil
		case data := <-out:
			ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
