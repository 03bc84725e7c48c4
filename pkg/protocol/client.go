// ABOUTME: WebSocket client for the hush remote control protocol
// ABOUTME: Handles connection, handshake, intents and state updates
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
}

// Client represents a remote control connection
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	States chan State
	Errors chan ServerError

	// Server is the hello received during the handshake
	Server ServerHello

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		States: make(chan State, 10),
		Errors: make(chan ServerError, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  Version,
	}
	if err := c.send(TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type == TypeServerError {
		var serverErr ServerError
		_ = DecodePayload(msg, &serverErr)
		return fmt.Errorf("server rejected connection: %s", serverErr.Message)
	}
	if msg.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}
	if err := DecodePayload(msg, &c.Server); err != nil {
		return err
	}

	log.Printf("Handshake complete with %s", c.Server.Name)
	return nil
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse JSON message: %v", err)
			continue
		}

		switch msg.Type {
		case TypeServerState:
			var state State
			if err := DecodePayload(msg, &state); err != nil {
				log.Printf("%v", err)
				continue
			}
			select {
			case c.States <- state:
			case <-time.After(100 * time.Millisecond):
				log.Printf("State channel full, dropping message")
			}

		case TypeServerError:
			var serverErr ServerError
			if err := DecodePayload(msg, &serverErr); err != nil {
				log.Printf("%v", err)
				continue
			}
			select {
			case c.Errors <- serverErr:
			case <-time.After(100 * time.Millisecond):
				log.Printf("Error channel full, dropping message")
			}

		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}

// send writes one JSON message
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(Message{Type: msgType, Payload: payload})
}

// Play asks the player to start sound, or the selected sound when empty
func (c *Client) Play(sound string) error {
	return c.send(TypePlay, SoundIntent{Sound: sound})
}

// Stop asks the player to stop
func (c *Client) Stop() error {
	return c.send(TypeStop, nil)
}

// Toggle asks the player to flip between playing and stopped
func (c *Client) Toggle() error {
	return c.send(TypeToggle, nil)
}

// Switch asks the player to change sound
func (c *Client) Switch(sound string) error {
	return c.send(TypeSwitch, SoundIntent{Sound: sound})
}

// SetVolume asks the player to change volume
func (c *Client) SetVolume(volume int) error {
	return c.send(TypeVolume, VolumeIntent{Volume: volume})
}

// ArmTimer asks the player to arm the sleep timer
func (c *Client) ArmTimer(minutes int) error {
	return c.send(TypeTimerArm, TimerIntent{Minutes: minutes})
}

// DisarmTimer asks the player to cancel the sleep timer
func (c *Client) DisarmTimer() error {
	return c.send(TypeTimerDisarm, nil)
}

// SetTimerMinutes asks the player to change the timer duration
func (c *Client) SetTimerMinutes(minutes int) error {
	return c.send(TypeTimerMinutes, TimerIntent{Minutes: minutes})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
