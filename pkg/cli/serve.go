package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/devicelab-dev/adbridge/pkg/logger"
	"github.com/devicelab-dev/adbridge/pkg/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP control server",
	Description: `Serve the device control API. Every endpoint is a GET with query
parameters and an optional "device" serial.

Examples:
  adbridge serve
  adbridge serve --addr 127.0.0.1:9744
  adbridge --device emulator-5554 serve --no-shell`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address (overrides server.addr)",
		},
		&cli.BoolFlag{
			Name:  "no-shell",
			Usage: "Disable the /run-command endpoint",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	cfg := configFrom(c)
	if v := c.String("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if c.Bool("no-shell") {
		cfg.Server.AllowShell = false
	}

	bridge, err := newBridge(cfg)
	if err != nil {
		return err
	}

	log := logger.L()
	httpSrv := server.New(bridge, log, *cfg).HTTPServer()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("adb", bridge.ADBPath()),
			zap.Bool("allow_shell", cfg.Server.AllowShell))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error: %v", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
