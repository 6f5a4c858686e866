package client

import (
	"time"

	"github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/object"
)

// GameState represents the current game phase for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Title screen
	GameStatePlaying                   // Active gameplay
	GameStateDead                      // Player died, show restart prompt
	GameStateShutdown                  // Server is shutting down
)

func (s GameState) String() string {
	switch s {
	case GameStateStart:
		return "start"
	case GameStatePlaying:
		return "playing"
	case GameStateDead:
		return "dead"
	case GameStateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Minimap dimensions in terminal cells. Each cell holds two sub-rows.
const (
	minimapWidth   = 20
	minimapHeight  = 8
	minimapSubRows = minimapHeight * 2
)

// ClientState holds per-player state (input, score, camera, etc.).
// Each client has their own instance, managed by the Client.
type ClientState struct {
	Input                object.Input
	View                 object.Screen // Viewport dimensions (can vary per client)
	Camera               object.Camera // Camera position (follows this client's player)
	GameState            GameState     // This client's game phase
	Player               *object.User  // Reference to this client's ship (from server)
	Score                int           // This client's score
	Lives                int           // This client's remaining lives
	InvincibleTime       float64       // Remaining invincibility time in seconds
	RespawnTimeRemaining float64       // Seconds until the dead screen accepts a restart
	KilledBy             string        // Who destroyed the ship last, empty for asteroids
	ShowEffects          bool          // Effect pool panel visible
	Running              bool          // Client loop running

	delta         time.Duration // Frame delta time (client-side)
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown
	isInactive    bool          // Whether the client is in inactive warning state

	// Previous frame's state, to detect transitions that need a full clear
	prevGameState GameState
	wasInactive   bool

	minimapGrid [minimapSubRows][minimapWidth]byte
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState: GameStateStart,
		Lives:     config.InitialLives,
		Running:   true,
	}
}
