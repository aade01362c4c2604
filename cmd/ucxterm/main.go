// Command ucxterm is an interactive AT terminal for u-connectXpress modules.
// Commands typed on stdin run as synchronous exchanges; unsolicited result
// codes are printed as they arrive, even mid-command.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/u-blox/ucxclient-go/internal/config"
	"github.com/u-blox/ucxclient-go/internal/logging"
	"github.com/u-blox/ucxclient-go/ucx"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file")
	listPorts := flag.Bool("list", false, "List available serial ports and exit")
	portName := flag.String("port", "", "Serial port (overrides the config)")
	baudRate := flag.Int("baud", 0, "Baud rate (overrides the config)")
	flag.Parse()

	if *listPorts {
		ports, err := serial.GetPortsList()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to list serial ports:", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	if *portName != "" {
		cfg.Serial.Port = *portName
	}
	if *baudRate != 0 {
		cfg.Serial.Baud = *baudRate
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientConfig, err := ucx.NewConfigBuilder().
		WithDialer(&ucx.SerialDialer{PortName: cfg.Serial.Port, BaudRate: cfg.Serial.Baud}).
		WithTimeout(cfg.Client.Timeout).
		WithPollInterval(cfg.Client.PollInterval).
		WithRxBufferSize(cfg.Client.RxBufferSize).
		WithURCBufferSize(cfg.Client.URCBufferSize).
		WithLogger(logger.Named("ucx")).
		Build()
	if err != nil {
		logger.Fatal("invalid client configuration", zap.Error(err))
	}

	client, err := ucx.Open(ctx, clientConfig)
	if err != nil {
		logger.Fatal("failed to open the module", zap.Error(err),
			zap.String("port", cfg.Serial.Port))
	}

	client.SetURCHandler(ucx.URCHandlerFunc(func(line string) {
		fmt.Println(line)
	}))

	loopDone := make(chan error, 1)
	go func() { loopDone <- client.Loop(ctx) }()

	// Command echo would show up as response data.
	if _, err := client.Execute(ctx, "ATE0"); err != nil {
		logger.Warn("could not disable command echo", zap.Error(err))
	}

	fmt.Printf("connected to %s @ %d\n", cfg.Serial.Port, cfg.Serial.Baud)
	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		repl(ctx, client)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case <-replDone:
	case err := <-loopDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("urc pump failed", zap.Error(err))
		}
	}

	if err := client.Close(); err != nil {
		logger.Error("failed to close the module", zap.Error(err))
	}
}

// repl runs exchanges typed on stdin until EOF or the client goes away.
func repl(ctx context.Context, client *ucx.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			fmt.Print("> ")
			continue
		}

		lines, err := client.Execute(ctx, command)
		for _, line := range lines {
			fmt.Println(line)
		}
		switch {
		case err == nil:
			fmt.Println("OK")
		case errors.Is(err, ucx.ErrClosed):
			return
		default:
			fmt.Println(err)
		}
		fmt.Print("> ")
	}
}
