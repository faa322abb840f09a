// Package ws serves the device's status surface: health, Prometheus
// metrics, a JSON state snapshot, a live frame preview over websocket and a
// control socket for overrides and self tests.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-pufflux/internal/command"
	diag "github.com/coreman2200/funtimes-pufflux/internal/diagnostics"
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/selftest"
)

// Status is the /state document.
type Status struct {
	Location    string        `json:"location"`
	Coordinates string        `json:"coordinates,omitempty"`
	Office      string        `json:"office,omitempty"`
	Hazard      string        `json:"hazard"`
	Config      render.Config `json:"config"`
	Command     string        `json:"command"`
	Driver      string        `json:"driver"`
	Count       int           `json:"count"`
	FPS         int           `json:"fps"`
	Frames      uint64        `json:"frames"`
	SelfTest    string        `json:"self_test,omitempty"`
	Demo        bool          `json:"demo"`
	Connected   bool          `json:"connected"`
	LastEval    *time.Time    `json:"last_evaluation,omitempty"`
	NextEval    *time.Time    `json:"next_evaluation,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// Backend is the device the server reports on and controls.
type Backend interface {
	Status() Status
	// Override shows c until the next evaluation replaces it.
	Override(c render.Config)
	RunSelfTest(k selftest.Kind)
	SetBrightness(v float64)
}

// Control is one message on the control socket. Command takes precedence
// over Config when both are set.
type Control struct {
	Command    string         `json:"command,omitempty"`
	Config     *render.Config `json:"config,omitempty"`
	RunTest    string         `json:"run_test,omitempty"`
	Brightness *float64       `json:"brightness,omitempty"`
}

// Reply answers each Control message.
type Reply struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Config  render.Config `json:"config"`
	Command string        `json:"command"`
}

type Server struct {
	backend  Backend
	gatherer prometheus.Gatherer
	diag     *diag.Log
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	rgb     []byte
	frameID uint64
	clients map[*websocket.Conn]bool
	wake    chan struct{}
	start   time.Time
}

// NewServer builds a server. A nil gatherer serves the default registry.
func NewServer(b Backend, g prometheus.Gatherer, d *diag.Log, logger zerolog.Logger) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		backend:  b,
		gatherer: g,
		diag:     d,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*websocket.Conn]bool{},
		wake:     make(chan struct{}, 1),
		start:    time.Now(),
	}
}

// Handler routes every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/state", s.HandleState)
	mux.HandleFunc("/diagnostics", s.HandleDiagnostics)
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	return withCORS(mux)
}

// Publish stores a copy of rgb for the preview. It never blocks the
// render loop; slow viewers just see fewer frames.
func (s *Server) Publish(rgb []byte) {
	s.mu.Lock()
	s.rgb = append(s.rgb[:0], rgb...)
	s.frameID++
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run broadcasts frames, at most maxFPS per second, until ctx is done.
func (s *Server) Run(ctx context.Context, maxFPS int) {
	if maxFPS <= 0 {
		maxFPS = 30
	}
	limit := time.NewTicker(time.Second / time.Duration(maxFPS))
	defer limit.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return
		case <-s.wake:
		}
		s.broadcastFrame()
		select {
		case <-ctx.Done():
		case <-limit.C:
		}
	}
}

// ListenAndServe serves addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server starting")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shut, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shut)
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.backend.Status()
	s.mu.Lock()
	resp := map[string]any{
		"ok":        true,
		"frame_id":  s.frameID,
		"uptime_s":  time.Since(s.start).Seconds(),
		"count":     st.Count,
		"fps":       st.FPS,
		"connected": st.Connected,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	out := []diag.Diagnostic{}
	if s.diag != nil {
		out = append(out, s.diag.Recent()...)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// gorilla allows one writer per conn: topology goes out before the
	// broadcaster can see the client
	s.sendTopology(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	if s.diag == nil {
		http.Error(w, "diagnostics disabled", http.StatusNotFound)
		return
	}
	// subscribe first so nothing pushed after the handshake is missed
	ch, stop := s.diag.Subscribe()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		stop()
		return
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		defer conn.Close()
		defer stop()
		for {
			select {
			case <-done:
				return
			case d := <-ch:
				b, _ := json.Marshal(d)
				conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}()
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		reply := Reply{OK: true}
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = Reply{Error: "bad control message: " + err.Error()}
		} else if err := s.applyControl(msg); err != nil {
			reply = Reply{Error: err.Error()}
		}
		st := s.backend.Status()
		reply.Config, reply.Command = st.Config, st.Command
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) applyControl(msg Control) error {
	switch {
	case msg.Command != "":
		cmd, err := command.Parse(msg.Command)
		if err != nil {
			return err
		}
		cfg, err := command.Decode(cmd)
		if err != nil {
			return err
		}
		s.override(cfg, cmd.String())
	case msg.Config != nil:
		if err := msg.Config.Validate(); err != nil {
			return err
		}
		s.override(*msg.Config, "")
	}
	if msg.Brightness != nil {
		v := *msg.Brightness
		if v < 0 || v > 1 {
			return errors.New("brightness outside [0,1]")
		}
		s.backend.SetBrightness(v)
	}
	if msg.RunTest != "" {
		k, err := selftest.ParseKind(msg.RunTest)
		if err != nil {
			s.diag.Push(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": msg.RunTest},
			})
			return err
		}
		s.backend.RunSelfTest(k)
	}
	return nil
}

func (s *Server) override(cfg render.Config, cmd string) {
	s.logger.Info().Stringer("config", cfg).Str("command", cmd).Msg("display override")
	s.backend.Override(cfg)
	s.diag.Push(diag.Diagnostic{
		Severity: diag.Info, Code: "CONTROL.OVERRIDE", Summary: "Display overridden until next evaluation",
		Detail: cfg.String(),
	})
}

func (s *Server) sendTopology(conn *websocket.Conn) {
	st := s.backend.Status()
	top := map[string]any{
		"type":   "topology",
		"count":  st.Count,
		"shape":  "ring",
		"driver": st.Driver,
	}
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *Server) broadcastFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: s.rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.logger.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.Close()
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
