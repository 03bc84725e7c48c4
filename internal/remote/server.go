// ABOUTME: Remote control server for a running player
// ABOUTME: Accepts websocket intents, broadcasts state and advertises over mDNS
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/hush/internal/discovery"
	"github.com/harperreed/hush/internal/version"
	"github.com/harperreed/hush/pkg/hush"
	"github.com/harperreed/hush/pkg/noise"
	"github.com/harperreed/hush/pkg/protocol"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 32
)

// Controller is the player surface the server drives. hush.Player
// implements it.
type Controller interface {
	Play(t noise.SoundType) error
	Stop() error
	Toggle() error
	SwitchType(t noise.SoundType) error
	SetVolume(v int) error
	ArmTimer(minutes int) error
	DisarmTimer() error
	SetTimerMinutes(minutes int) error
	Snapshot() hush.PlayerState
}

// Config holds server configuration
type Config struct {
	Addr       string // Listen address; overrides Port when set
	Port       int
	Name       string
	EnableMDNS bool
}

// Server exposes a Controller over websocket
type Server struct {
	config   Config
	serverID string
	ctrl     Controller
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	// Client management
	clients   map[string]*client
	clientsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	listenerMu sync.Mutex
	listener   net.Listener
	wg         sync.WaitGroup
}

type client struct {
	id       string
	name     string
	conn     *websocket.Conn
	sendChan chan protocol.Message
}

// New creates a remote control server
func New(config Config, ctrl Controller) *Server {
	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		ctrl:     ctrl,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Local network control only; browsers on the LAN may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ID returns the server identifier sent in server/hello
func (s *Server) ID() string {
	return s.serverID
}

// Addr returns the bound listen address once Start has listened
func (s *Server) Addr() string {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", s.config.Port)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	if s.config.EnableMDNS {
		port := listener.Addr().(*net.TCPAddr).Port
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
			Path:        protocol.Path,
			Version:     version.Version,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	httpServer := &http.Server{Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Printf("Remote control listening on %s%s", listener.Addr(), protocol.Path)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errChan:
		log.Printf("Remote server error: %v", serveErr)
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Remote server shutdown error: %v", err)
	}

	// Hijacked websocket connections are not closed by Shutdown
	s.clientsMu.RLock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.clientsMu.RUnlock()

	s.wg.Wait()

	if serveErr != nil {
		return fmt.Errorf("remote server failed: %w", serveErr)
	}
	return nil
}

// Broadcast sends state to every connected client without blocking
func (s *Server) Broadcast(state hush.PlayerState) {
	msg := protocol.Message{Type: protocol.TypeServerState, Payload: WireState(state)}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		s.enqueue(c, msg)
	}
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// WireState converts a player state to its protocol form
func WireState(state hush.PlayerState) protocol.State {
	return protocol.State{
		Playing:          state.Playing,
		Switching:        state.Switching,
		Sound:            state.Sound.String(),
		Volume:           state.Volume,
		TimerActive:      state.TimerActive,
		TimerMinutes:     state.TimerMinutes,
		RemainingSeconds: state.RemainingSeconds,
		Remaining:        state.Remaining(),
		AudioBlocked:     state.AudioBlocked,
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New remote connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	if msg.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg, &hello); err != nil {
		log.Printf("Error parsing client hello: %v", err)
		return
	}
	if hello.ClientID == "" {
		hello.ClientID = uuid.New().String()
	}
	if hello.Name == "" {
		hello.Name = "remote"
	}

	c := &client{
		id:       hello.ClientID,
		name:     hello.Name,
		conn:     conn,
		sendChan: make(chan protocol.Message, sendBuffer),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[c.id]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", c.id)
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		_ = conn.WriteJSON(protocol.Message{
			Type:    protocol.TypeServerError,
			Payload: protocol.ServerError{Intent: protocol.TypeClientHello, Message: "client ID already connected"},
		})
		return
	}
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	log.Printf("Remote client connected: %s (ID: %s)", c.name, c.id)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		close(c.sendChan)
		s.clientsMu.Unlock()
		log.Printf("Remote client disconnected: %s", c.name)
	}()

	s.enqueue(c, protocol.Message{
		Type: protocol.TypeServerHello,
		Payload: protocol.ServerHello{
			ServerID:        s.serverID,
			Name:            s.config.Name,
			Version:         protocol.Version,
			SoftwareVersion: version.Version,
		},
	})
	s.enqueue(c, protocol.Message{Type: protocol.TypeServerState, Payload: WireState(s.ctrl.Snapshot())})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		s.handleClientMessage(c, data)
	}
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage applies one intent. Successful intents are answered by
// the state broadcast; failures also get a server/error for this client.
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		s.sendError(c, "", fmt.Errorf("malformed message: %w", err))
		return
	}

	log.Printf("Remote intent from %s: %s", c.name, msg.Type)

	if err := s.apply(msg); err != nil {
		s.sendError(c, msg.Type, err)
	}
}

func (s *Server) apply(msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypePlay:
		var intent protocol.SoundIntent
		if err := protocol.DecodePayload(msg, &intent); err != nil {
			return err
		}
		if intent.Sound == "" {
			return s.ctrl.Play(s.ctrl.Snapshot().Sound)
		}
		t, err := noise.ParseSoundType(intent.Sound)
		if err != nil {
			return err
		}
		return s.ctrl.Play(t)

	case protocol.TypeStop:
		return s.ctrl.Stop()

	case protocol.TypeToggle:
		return s.ctrl.Toggle()

	case protocol.TypeSwitch:
		var intent protocol.SoundIntent
		if err := protocol.DecodePayload(msg, &intent); err != nil {
			return err
		}
		t, err := noise.ParseSoundType(intent.Sound)
		if err != nil {
			return err
		}
		return s.ctrl.SwitchType(t)

	case protocol.TypeVolume:
		var intent protocol.VolumeIntent
		if err := protocol.DecodePayload(msg, &intent); err != nil {
			return err
		}
		return s.ctrl.SetVolume(intent.Volume)

	case protocol.TypeTimerArm:
		var intent protocol.TimerIntent
		if err := protocol.DecodePayload(msg, &intent); err != nil {
			return err
		}
		return s.ctrl.ArmTimer(intent.Minutes)

	case protocol.TypeTimerDisarm:
		return s.ctrl.DisarmTimer()

	case protocol.TypeTimerMinutes:
		var intent protocol.TimerIntent
		if err := protocol.DecodePayload(msg, &intent); err != nil {
			return err
		}
		return s.ctrl.SetTimerMinutes(intent.Minutes)

	default:
		return fmt.Errorf("unknown intent: %s", msg.Type)
	}
}

func (s *Server) sendError(c *client, intent string, err error) {
	s.enqueue(c, protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Intent: intent, Message: err.Error()},
	})
}

// enqueue drops the message when the client is not keeping up
func (s *Server) enqueue(c *client, msg protocol.Message) {
	select {
	case c.sendChan <- msg:
	default:
		log.Printf("Client %s send buffer full, dropping %s", c.name, msg.Type)
	}
}
