// Command ucxbridge exposes a local serial port over WebSocket so a client
// on another machine can drive the attached module with a WebSocketDialer.
// One session at a time; the serial port is exclusive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/u-blox/ucxclient-go/internal/config"
	"github.com/u-blox/ucxclient-go/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is LAN tooling, not a browser-facing service.
	CheckOrigin: func(*http.Request) bool { return true },
}

type bridge struct {
	cfg *config.Config
	log *zap.Logger

	mu   sync.Mutex
	busy bool
}

func main() {
	configPath := flag.String("config", "", "Path to a config file")
	listen := flag.String("listen", "", "Listen address (overrides the config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Bridge.Listen = *listen
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	b := &bridge{cfg: cfg, log: logger.Named("bridge")}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /serial", b.handleSerial)

	srv := &http.Server{
		Addr:    cfg.Bridge.Listen,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("bridge listening",
			zap.String("address", srv.Addr),
			zap.String("serial_port", cfg.Serial.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down cleanly", zap.Error(err))
	}
}

// handleSerial runs one relay session: bytes from the serial port stream out
// as binary messages, incoming messages are written to the port verbatim.
func (b *bridge) handleSerial(w http.ResponseWriter, r *http.Request) {
	log := b.log.With(zap.String("session", uuid.NewString()))

	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		log.Warn("rejected session, port in use", zap.String("remote", r.RemoteAddr))
		http.Error(w, "serial port in use", http.StatusConflict)
		return
	}
	b.busy = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.busy = false
		b.mu.Unlock()
	}()

	mode := &serial.Mode{
		BaudRate: b.cfg.Serial.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(b.cfg.Serial.Port, mode)
	if err != nil {
		log.Error("failed to open serial port", zap.Error(err),
			zap.String("port", b.cfg.Serial.Port))
		http.Error(w, "serial port unavailable", http.StatusBadGateway)
		return
	}
	defer port.Close()
	// Bounded reads keep the relay loop responsive to teardown.
	if err := port.SetReadTimeout(20 * time.Millisecond); err != nil {
		log.Error("failed to set read timeout", zap.Error(err))
		http.Error(w, "serial port unavailable", http.StatusBadGateway)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	log.Info("session open", zap.String("remote", r.RemoteAddr))

	// Serial to WebSocket. The main loop is the only reader and this
	// goroutine the only writer, which is what the connection allows.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		buf := make([]byte, 4096)
		for {
			n, err := port.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
				return
			}
		}
	}()

	// WebSocket to serial.
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection read ended", zap.Error(err))
			}
			break
		}
		if _, err := port.Write(msg); err != nil {
			log.Error("serial write failed", zap.Error(err))
			break
		}
	}

	conn.Close()
	port.Close()
	<-pumpDone
	log.Info("session closed")
}
