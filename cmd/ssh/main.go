package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/shatter/internal/config"
	"github.com/tomz197/shatter/internal/draw"
	"github.com/tomz197/shatter/internal/loop/client"
	loopconfig "github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/loop/server"
	"github.com/tomz197/shatter/internal/telemetry"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

func main() {
	logger := config.NewLogger(os.Stderr, "shatter")
	if err := run(logger); err != nil {
		logger.Fatal("server error", "err", err)
	}
}

func run(logger *log.Logger) error {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	metricsAddr := config.GetEnv("METRICS_ADDR", "")
	effectsFile := config.GetEnv("EFFECTS_FILE", "")
	conv := config.GetEnvFloat("COORDS_CONVERSION", loopconfig.DefaultCoordsConversion)

	logger.Info("ssh config", "host", host, "port", port, "hostKey", hostKeyPath,
		"metrics", metricsAddr, "effects", effectsFile)

	presets, err := config.LoadEffectPresets(effectsFile)
	if err != nil {
		return err
	}

	gameServer := server.NewServer(server.Options{
		Logger:           logger.With("component", "server"),
		Presets:          presets,
		CoordsConversion: conv,
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			gameMiddleware(gameServer, logger),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger.WithPrefix("ssh")),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("creating ssh server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The game outlives the signal so players can see the shutdown notice.
	gameCtx, cancelGame := context.WithCancel(context.Background())
	defer cancelGame()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gameServer.Run(gameCtx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting ssh server", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("ssh server: %w", err)
		}
		return nil
	})
	if metricsAddr != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, logger, metricsAddr, telemetry.Handler(telemetry.NewRegistry(gameServer)))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down, notifying connected players")
		gameServer.Shutdown(loopconfig.ShutdownGracePeriod)
		cancelGame()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ssh shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// gameMiddleware runs a game client for each SSH session.
func gameMiddleware(gs server.GameServer, logger *log.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			profile := colorProfile(pty.Term, sess.Environ())
			username := sanitizeUsername(sess.User())
			logger.Info("new game session", "user", username, "term", pty.Term,
				"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height), "profile", profile)

			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			c := client.NewClient(gs, bufio.NewReader(sess), sess, client.ClientOptions{
				TermSizeFunc: sizeTracker.getSize,
				Username:     username,
				ColorProfile: profile,
			})
			if err := c.Run(); err != nil {
				logger.Error("game error", "user", username, "err", err)
			}

			logger.Info("session ended", "user", username, "score", c.State().Score)
			next(sess)
		}
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
