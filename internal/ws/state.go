// Package ws serves a live preview of the rendered frames over WebSocket,
// plus diagnostics, a small control channel and a health endpoint.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumisweep/internal/config"
	diag "github.com/coreman2200/lumisweep/internal/diagnostics"
	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/render"
)

// Control is a request from a control client. Nil or zero fields are unset.
type Control struct {
	Brightness *float64
	Effect     string
	Restart    bool
}

// State is an engine driver that scales each frame by the live brightness,
// forwards it to Next and broadcasts it to the preview clients.
type State struct {
	mu         sync.RWMutex
	Layout     layout.Layout
	Brightness float64

	ConfigPath    string
	Config        *config.Config
	Next          render.Driver
	CurrentDriver string
	OnControl     func(Control)

	rgb         []byte
	scaled      []render.Color
	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func NewState(l layout.Layout, brightness float64) *State {
	return &State{
		Layout:      l,
		Brightness:  brightness,
		rgb:         make([]byte, l.Count()*3),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

func (s *State) Write(buf []render.Color) error {
	s.mu.Lock()
	if len(s.scaled) != len(buf) {
		s.scaled = make([]render.Color, len(buf))
	}
	if len(s.rgb) != len(buf)*3 {
		s.rgb = make([]byte, len(buf)*3)
	}
	k := float32(s.Brightness)
	for i, c := range buf {
		c = render.Color{R: c.R * k, G: c.G * k, B: c.B * k}
		s.scaled[i] = c
		s.rgb[i*3], s.rgb[i*3+1], s.rgb[i*3+2] = c.RGB8()
	}
	s.frameID++
	out := append([]byte{}, s.rgb...)
	next := s.Next
	s.mu.Unlock()

	if next != nil {
		if err := next.Write(s.scaled); err != nil {
			s.Diag(diag.Diagnostic{Severity: diag.Err, Code: "DRIVER.WRITE", Summary: "Output write failed", Detail: err.Error()})
			return err
		}
	}
	s.broadcastFrame(out)
	return nil
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)
	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain reads until the client goes away, then unregisters it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Diag(diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.PARSE", Summary: "Malformed control message", Detail: err.Error()})
			continue
		}
		s.applyControl(msg)
		s.sendTopology(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"count":      s.Layout.Count(),
		"brightness": s.Brightness,
		"driver":     s.CurrentDriver,
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) applyControl(msg map[string]any) {
	var ctl Control
	var warn *diag.Diagnostic
	s.mu.Lock()
	if v, ok := msg["brightness"].(float64); ok {
		s.Brightness = clamp(v, 0, 1)
		b := s.Brightness
		ctl.Brightness = &b
	}
	effect, ok := msg["effect"].(string)
	if t, isTest := msg["runTest"].(string); isTest {
		effect, ok = t, true
	}
	if ok {
		if config.KnownEffect(effect) {
			ctl.Effect = strings.ToLower(strings.TrimSpace(effect))
		} else {
			warn = &diag.Diagnostic{
				Severity: diag.Warn, Code: "CONTROL.EFFECT", Summary: "Unknown effect name",
				Evidence: map[string]any{"name": effect},
			}
		}
	}
	if v, ok := msg["restart"].(bool); ok {
		ctl.Restart = v
	}
	s.saveConfig(ctl)
	fn := s.OnControl
	s.mu.Unlock()

	if warn != nil {
		s.Diag(*warn)
	}
	if fn != nil && (ctl.Brightness != nil || ctl.Effect != "" || ctl.Restart) {
		fn(ctl)
	}
}

// saveConfig persists brightness and effect changes. Caller holds mu.
func (s *State) saveConfig(ctl Control) {
	if s.ConfigPath == "" || s.Config == nil {
		return
	}
	if ctl.Brightness == nil && ctl.Effect == "" {
		return
	}
	s.Config.Brightness = s.Brightness
	if ctl.Effect != "" {
		s.Config.Effect = ctl.Effect
	}
	if err := config.Save(s.ConfigPath, s.Config); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("save config")
	}
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	top := map[string]any{
		"dim":        map[string]int{"x": s.Layout.Dim.X, "y": s.Layout.Dim.Y, "z": s.Layout.Dim.Z},
		"order":      map[string]bool{"xFlipEveryRow": s.Layout.Order.XFlipEveryRow, "yFlipEveryPanel": s.Layout.Order.YFlipEveryPanel},
		"panelGapMM": s.Layout.PanelGapMM,
		"pitchMM":    s.Layout.PitchMM,
		"brightness": s.Brightness,
		"driver":     s.CurrentDriver,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *State) broadcastFrame(rgb []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) == 0 {
		return
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// Diag pushes d to every diagnostics client.
func (s *State) Diag(d diag.Diagnostic) {
	log.Debug().Object("diag", d).Msg("diagnostic")
	b, _ := json.Marshal(d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// Mux routes the preview endpoints.
func (s *State) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
