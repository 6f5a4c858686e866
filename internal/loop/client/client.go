// Package client renders the shared world for one terminal connection and
// forwards that connection's keys to the server.
package client

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tomz197/shatter/internal/draw"
	"github.com/tomz197/shatter/internal/input"
	"github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/loop/server"
	"github.com/tomz197/shatter/internal/object"
)

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	lastFrame    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	styles       styles
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	// ColorProfile is what the connected terminal can display. The zero value
	// is termenv.TrueColor.
	ColorProfile termenv.Profile
	// ShowEffects starts with the effect pool panel visible.
	ShowEffects bool
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	handle := gs.RegisterClient(opts.Username)
	state := NewClientState()
	state.ShowEffects = opts.ShowEffects

	state.View = object.NewScreen(config.ViewWidth, config.ViewHeight)

	// Camera starts at world center
	state.Camera = object.Camera{
		X: float64(config.WorldWidth) / 2,
		Y: float64(config.WorldHeight) / 2,
	}

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, err := termSizeFunc()
	if err != nil {
		termWidth, termHeight = config.MaxTermWidth, config.MaxTermHeight
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetProfile(opts.ColorProfile)
	canvas.SetOffset(offsetCol, offsetRow)
	chunkWriter := draw.NewChunkWriter(w, offsetCol, offsetRow)

	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(opts.ColorProfile)

	now := time.Now()
	return &Client{
		server:       gs,
		handle:       handle,
		state:        state,
		canvas:       canvas,
		chunkWriter:  chunkWriter,
		writer:       w,
		lastInput:    now,
		lastFrame:    now,
		inputStream:  input.StartStream(r),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		styles:       newStyles(renderer),
	}
}

// State returns the client's state. Read only.
func (c *Client) State() *ClientState {
	return c.state
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	for c.state.Running {
		frameStart := time.Now()

		if err := c.frame(frameStart); err != nil {
			c.server.UnregisterClient(c.handle.ID)
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// frame runs one client frame: input, server events, state, drawing.
func (c *Client) frame(now time.Time) error {
	c.state.delta = now.Sub(c.lastFrame)
	c.lastFrame = now

	c.processInput(now)
	c.processServerEvents()
	c.updateScreen()

	switch c.state.GameState {
	case GameStateStart:
		c.updateStartState()
	case GameStatePlaying:
		c.updatePlayingState()
	case GameStateDead:
		c.updateDeadState()
	case GameStateShutdown:
		c.updateShutdownState()
	}

	if !c.state.Running {
		return nil
	}
	return c.drawFrame()
}

// processInput reads input and sends it to the server.
func (c *Client) processInput(now time.Time) {
	c.state.Input = input.ReadInput(c.inputStream)

	if c.inputStream.Closed() {
		c.state.Running = false
		return
	}

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = now
		c.state.isInactive = false
	} else if idle := now.Sub(c.lastInput).Seconds(); idle > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if idle > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit {
		c.state.Running = false
	}

	if bytes.IndexAny(c.state.Input.Pressed, "eE") >= 0 {
		c.state.ShowEffects = !c.state.ShowEffects
	}

	if c.state.GameState == GameStatePlaying {
		c.server.SendInput(c.handle.ID, c.state.Input)
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventPlayerDied:
				c.state.Lives--
				c.state.GameState = GameStateDead
				c.state.Player = nil
				c.state.KilledBy = event.KilledBy
				c.state.RespawnTimeRemaining = config.RespawnTimeoutSeconds
			case server.EventScoreAdd:
				c.state.Score += event.ScoreAdd
			case server.EventServerShutdown:
				c.state.GameState = GameStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// updateStartState handles the start screen.
func (c *Client) updateStartState() {
	if c.state.Input.Space || c.state.Input.Enter {
		c.startGame()
	}
}

// updatePlayingState handles the playing state.
func (c *Client) updatePlayingState() {
	if c.state.InvincibleTime > 0 {
		c.state.InvincibleTime = max(c.state.InvincibleTime-c.state.delta.Seconds(), 0)
	}

	// Camera follows the player
	c.state.Player = c.server.GetClientPlayer(c.handle.ID)
	if c.state.Player != nil {
		c.state.Camera.X, c.state.Camera.Y = c.state.Player.GetPosition()
	}
}

// updateDeadState handles the death screen.
func (c *Client) updateDeadState() {
	if c.state.RespawnTimeRemaining > 0 {
		c.state.RespawnTimeRemaining = max(c.state.RespawnTimeRemaining-c.state.delta.Seconds(), 0)
	}
	if (c.state.Input.Space || c.state.Input.Enter) && c.state.RespawnTimeRemaining <= 0 {
		c.startGame()
	}
}

// startGame starts or restarts the game.
func (c *Client) startGame() {
	input.ResetKeyInput(c.inputStream)

	if c.state.GameState == GameStateStart || c.state.Lives <= 0 {
		// Full restart
		c.state.Score = 0
		c.state.Lives = config.InitialLives
	}

	c.server.SpawnPlayer(c.handle.ID)
	c.state.Player = c.server.GetClientPlayer(c.handle.ID)
	if c.state.Player != nil {
		c.state.Camera.X, c.state.Camera.Y = c.state.Player.GetPosition()
	}

	c.state.InvincibleTime = config.InvincibilitySeconds
	c.state.KilledBy = ""
	c.state.GameState = GameStatePlaying
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
