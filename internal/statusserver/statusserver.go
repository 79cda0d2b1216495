// Package statusserver is the optional --serve HTTP server
// (SPEC_FULL.md §4.3): liveness, a JSON status snapshot, a Prometheus
// scrape endpoint, and a websocket feed of the partial FD list. Routing
// and middleware follow the teacher's services/orchestrator gin setup.
package statusserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/opencover/hyfd/internal/fdio"
	"github.com/opencover/hyfd/internal/metrics"
	"github.com/opencover/hyfd/pkg/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Server exposes the engine's live state over HTTP. The Hub pattern
// (Publish/Subscribe) lets the engine push partial FD lists without the
// server holding any engine-owned state directly (spec.md §5 concurrency
// model: read-only observability, not part of the algorithm).
type Server struct {
	router  *gin.Engine
	snap    func() metrics.Snapshot
	hub     *hub
	logger  *logging.Logger
	tracing bool
}

// New builds a Server. snap is called on every GET /status request;
// traceServiceName enables otelgin middleware when non-empty.
func New(snap func() metrics.Snapshot, reg *metrics.Registry, logger *logging.Logger, traceServiceName string) *Server {
	s := &Server{snap: snap, hub: newHub(), logger: logger, tracing: traceServiceName != ""}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if traceServiceName != "" {
		s.router.Use(otelgin.Middleware(traceServiceName))
	}

	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/ws", s.handleWS)
	if reg != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})))
	}

	return s
}

// PublishFDs broadcasts the latest partial FD list to every connected
// websocket client, mirroring what was just flushed to the local output
// sink after an iteration (spec.md §6).
func (s *Server) PublishFDs(pairs []fdio.Pair) {
	s.hub.broadcast(pairs)
}

// ListenAndServe starts the HTTP server on addr, blocking until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snap())
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)

	for pairs := range sub {
		if err := conn.WriteJSON(pairs); err != nil {
			return
		}
	}
}

// hub fans out broadcasts to any number of live websocket subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[chan []fdio.Pair]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan []fdio.Pair]struct{})}
}

func (h *hub) subscribe() chan []fdio.Pair {
	ch := make(chan []fdio.Pair, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan []fdio.Pair) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *hub) broadcast(pairs []fdio.Pair) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- pairs:
		default:
			// Slow subscriber: drop the update rather than block the
			// engine's publish path.
		}
	}
}
