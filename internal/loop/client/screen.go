package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/draw"
	"github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/loop/server"
	"github.com/tomz197/shatter/internal/object"
)

// styles are the HUD looks, bound to the connection's color profile.
type styles struct {
	title  lipgloss.Style
	banner lipgloss.Style
	text   lipgloss.Style
	dim    lipgloss.Style
	prompt lipgloss.Style
	warn   lipgloss.Style
	panel  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	accent := lipgloss.Color("#FF8C42")
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD166")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(0, 4),
		banner: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF476F")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF476F")).
			Padding(0, 2),
		text:   r.NewStyle(),
		dim:    r.NewStyle().Faint(true),
		prompt: r.NewStyle().Bold(true).Foreground(accent),
		warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD166")),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1),
	}
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On game state or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.chunkWriter.WriteString(draw.SeqClearScreen)
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()

	snapshot := c.server.GetSnapshot()

	ctx := object.DrawContext{
		Canvas: c.canvas,
		Camera: c.state.Camera,
		View:   c.state.View,
		World:  snapshot.World,
	}

	for _, obj := range snapshot.Objects {
		// Skip drawing player when blinking (invincible)
		if obj == c.state.Player && !object.Visible(c.state.InvincibleTime, config.PlayerBlinkFrequency) {
			continue
		}
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}
	c.drawSprites(snapshot)

	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawPlayerNames(snapshot.UserObjects, snapshot.World)
	c.drawUI(snapshot)

	return c.chunkWriter.Flush()
}

// drawSprites plots explosion particles over the objects.
func (c *Client) drawSprites(snapshot *server.WorldSnapshot) {
	for _, sp := range snapshot.Sprites {
		if sp.Alpha <= 0 {
			continue
		}
		col := colorful.Color{
			R: float64(sp.R) / 255,
			G: float64(sp.G) / 255,
			B: float64(sp.B) / 255,
		}
		positions := object.WorldToScreen(sp.X, sp.Y, c.state.Camera, c.state.View, snapshot.World)
		for i := 0; i < positions.Count; i++ {
			pos := positions.Positions[i]
			c.canvas.SetColor(pos.X, pos.Y, col)
		}
	}
}

// writeText writes a styled block of lines.
func (c *Client) writeText(t object.Text) {
	c.chunkWriter.WriteLines(max(t.X, 1), max(t.Y, 1), t.Lines())
}

// centered lays out blocks top to bottom, centered on (centerX, centerY),
// with one blank row between them.
func (c *Client) centered(centerX, centerY int, blocks ...object.Text) {
	rendered := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Value == "" {
			continue
		}
		rendered = append(rendered, b.Style.Render(b.Value))
	}
	page := strings.Join(rendered, "\n\n")
	page = lipgloss.JoinVertical(lipgloss.Center, strings.Split(page, "\n")...)
	c.writeText(object.Text{Value: page, Style: c.styles.text}.Centered(centerX, centerY))
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI(snapshot *server.WorldSnapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight, snapshot)
	case GameStateStart:
		c.drawStartScreen(centerX, centerY)
	case GameStateDead:
		c.drawDeadScreen(centerX, centerY)
	}

	if c.state.ShowEffects {
		c.drawEffectsPanel(termHeight, snapshot.Effects)
	}
}

// blink reports whether blinking prompts are in their visible phase.
func blink() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	left := int(config.InactivityDisconnectUser - time.Since(c.lastInput).Seconds())
	c.centered(centerX, centerY,
		object.Text{Value: "INACTIVITY WARNING", Style: c.styles.banner},
		object.Text{
			Value: fmt.Sprintf("You have been inactive for too long. You will be disconnected in %3d seconds.", left),
			Style: c.styles.text,
		},
		object.Text{Value: "Press any key to continue", Style: c.styles.dim},
	)
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerX, centerY int) {
	controls := strings.Join([]string{
		"W / Up  . . . . Thrust",
		"A D / < >  . .  Rotate",
		"SPACE  . . . . . Shoot",
		"E  . . . . .  Effects",
		"Q  . . . . . . .  Quit",
	}, "\n")

	prompt := strings.Repeat(" ", len(">>  Press SPACE to Start  <<"))
	if blink() {
		prompt = ">>  Press SPACE to Start  <<"
	}

	c.centered(centerX, centerY,
		object.Text{Value: "S H A T T E R", Style: c.styles.title},
		object.Text{Value: "~ Multiplayer Asteroids over SSH ~", Style: c.styles.dim},
		object.Text{Value: "Controls\n" + controls, Style: c.styles.text},
		object.Text{Value: prompt, Style: c.styles.prompt},
	)
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen (since we no longer clear every frame).
func (c *Client) drawPlayingHUD(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	cw := c.chunkWriter
	scoreText := fmt.Sprintf("Score: %-8d", c.state.Score)
	cw.WriteAt(2, 1, scoreText)

	livesText := fmt.Sprintf("Lives: %-3d", c.state.Lives)
	cw.WriteAt(termWidth-len(livesText)-1, 1, livesText)

	if c.state.Player != nil {
		c.drawMinimap(termWidth, termHeight, snapshot)
	}

	livePlayersText := fmt.Sprintf("Players: %-4d", snapshot.Players)
	cw.WriteAt(termWidth-len(livePlayersText)-1, termHeight, livePlayersText)

	if c.state.Player != nil {
		px, py := c.state.Player.GetPosition()
		coordText := fmt.Sprintf("X:%-5.0f Y:%-5.0f", px, py)
		cw.WriteAt(2, termHeight, coordText)
	}
}

// effectsPanel formats the pool metrics table.
func effectsPanel(stats []server.EffectStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-9s %4s %4s %6s", "effect", "live", "pool", "reuse"))
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("\n%-9s %4d %4d %6d", s.Kind, s.Active, s.Allocated, s.Reuses))
	}
	return b.String()
}

// drawEffectsPanel draws the effect pool table in the bottom-left corner,
// above the coordinates line.
func (c *Client) drawEffectsPanel(termHeight int, stats []server.EffectStats) {
	if len(stats) == 0 {
		return
	}
	t := object.Text{Value: effectsPanel(stats), Style: c.styles.panel}
	w, h := t.Size()
	t.X = 2
	t.Y = termHeight - h
	if t.Y < 3 || w+2 > c.canvas.TerminalWidth() {
		return
	}
	c.writeText(t)
	for i := range h {
		c.canvas.MarkTextDirty(t.X, t.Y+i, w)
	}
}

// drawMinimap draws a small overview of the world showing the local player and others.
// Uses half-block characters (▀▄█) for 2x vertical resolution. Self is bright cyan, others dim.
func (c *Client) drawMinimap(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	worldW := float64(snapshot.World.Width)
	worldH := float64(snapshot.World.Height)
	if worldW <= 0 || worldH <= 0 {
		return
	}

	// Build minimap grid: 0=empty, 1=other, 2=self (self overwrites)
	grid := &c.state.minimapGrid
	*grid = [minimapSubRows][minimapWidth]byte{}

	for _, user := range snapshot.UserObjects {
		x, y := user.GetPosition()
		col := min(max(int(x/worldW*minimapWidth), 0), minimapWidth-1)
		subRow := min(max(int(y/worldH*minimapSubRows), 0), minimapSubRows-1)
		if user == c.state.Player {
			grid[subRow][col] = 2
		} else if grid[subRow][col] == 0 {
			grid[subRow][col] = 1
		}
	}

	// Position: top-right, below lives
	startCol := termWidth - minimapWidth - 3
	startRow := 3
	if startCol < 1 || startRow+minimapHeight+1 > termHeight {
		return
	}

	cw := c.chunkWriter
	cw.WriteAt(startCol, startRow, "┌"+strings.Repeat("─", minimapWidth)+"┐")
	c.canvas.MarkTextDirty(startCol, startRow, minimapWidth+2)

	// Each terminal row combines 2 sub-rows via half-block characters
	for termRow := 0; termRow < minimapHeight; termRow++ {
		cw.WriteAt(startCol, startRow+1+termRow, "│")
		curColor := ""
		for col := 0; col < minimapWidth; col++ {
			top := grid[termRow*2][col]
			bot := grid[termRow*2+1][col]
			wantColor := draw.ColorDim
			if top == 2 || bot == 2 {
				wantColor = draw.ColorBrightCyan
			}
			var r rune
			switch {
			case top != 0 && bot != 0:
				r = draw.BlockFull
			case top != 0:
				r = draw.BlockUpperHalf
			case bot != 0:
				r = draw.BlockLowerHalf
			default:
				r = ' '
			}
			if r != ' ' {
				if curColor != wantColor {
					cw.WriteString(wantColor)
					curColor = wantColor
				}
			} else if curColor != "" {
				cw.WriteString(draw.ColorReset)
				curColor = ""
			}
			cw.WriteRune(r)
		}
		if curColor != "" {
			cw.WriteString(draw.ColorReset)
		}
		cw.WriteString("│")
		c.canvas.MarkTextDirty(startCol, startRow+1+termRow, minimapWidth+2)
	}

	cw.WriteAt(startCol, startRow+1+minimapHeight, "└"+strings.Repeat("─", minimapWidth)+"┘")
	c.canvas.MarkTextDirty(startCol, startRow+1+minimapHeight, minimapWidth+2)
}

// drawDeadScreen draws the death/game over screen.
func (c *Client) drawDeadScreen(centerX, centerY int) {
	title := "YOU DIED"
	if c.state.Lives <= 0 {
		title = "GAME OVER"
	}

	cause := "Hit by an asteroid"
	if c.state.KilledBy != "" {
		cause = "Shot down by " + c.state.KilledBy
	}

	info := fmt.Sprintf("%s\nScore: %d", cause, c.state.Score)
	if c.state.Lives > 0 {
		info += fmt.Sprintf("\nLives remaining: %d", c.state.Lives)
	}

	var prompt string
	switch {
	case c.state.RespawnTimeRemaining > 0:
		prompt = fmt.Sprintf("Respawn in %.1f seconds...", c.state.RespawnTimeRemaining)
	case !blink():
		prompt = strings.Repeat(" ", 31)
	case c.state.Lives > 0:
		prompt = ">>  Press SPACE to Continue  <<"
	default:
		prompt = ">>  Press SPACE to Restart  <<"
	}

	c.centered(centerX, centerY,
		object.Text{Value: title, Style: c.styles.banner},
		object.Text{Value: info, Style: c.styles.text},
		object.Text{Value: prompt, Style: c.styles.prompt},
	)
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	remaining := int(c.state.shutdownTimer) + 1
	c.centered(centerX, centerY,
		object.Text{Value: "SERVER SHUTTING DOWN", Style: c.styles.banner},
		object.Text{
			Value: "The server is restarting for maintenance.\nPlease reconnect in a moment.",
			Style: c.styles.text,
		},
		object.Text{Value: fmt.Sprintf("Disconnecting in %2d seconds...", remaining), Style: c.styles.warn},
		object.Text{Value: "Press Q to disconnect now", Style: c.styles.dim},
	)
}

// drawPlayerNames draws usernames above other players' ships.
// Marks the drawn cells as dirty so the canvas overwrites them next frame,
// preventing stale name text from persisting when ships move.
func (c *Client) drawPlayerNames(userObjects []*object.User, world object.Screen) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()

	for _, user := range userObjects {
		if user == c.state.Player || user.Username == "" {
			continue
		}

		positions := object.WorldToScreen(user.X, user.Y, c.state.Camera, c.state.View, world)
		for i := 0; i < positions.Count; i++ {
			pos := positions.Positions[i]

			// Offset above the ship, centered
			col, row := c.canvas.LogicalToTerminal(pos.X, pos.Y-user.Size-2)
			col -= len(user.Username) / 2

			if row < 1 || row > termHeight {
				continue
			}
			if col < 1 || col+len(user.Username) > termWidth {
				continue
			}

			c.chunkWriter.WriteAt(col, row, user.Username)
			c.canvas.MarkTextDirty(col, row, len(user.Username))
		}
	}
}
