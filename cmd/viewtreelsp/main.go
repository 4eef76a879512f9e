package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cmyser/lspcore/lspclient"
	"github.com/cmyser/lspcore/lspserver"
	"github.com/cmyser/lspcore/pending"
	"github.com/cmyser/lspcore/service"
)

func main() {
	var (
		listen     string
		configPath string
		workspace  string
	)

	cmd := &cobra.Command{
		Use:   "viewtreelsp",
		Short: "LSP server for the view.tree component-definition language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", configPath, err)
			}
			if workspace != "" {
				cfg.Workspace = workspace
			}
			if cfg.Workspace == "" {
				cfg.Workspace = "."
			}

			log := newLogger(cfg.LogLevel)

			if listen != "" {
				return serveTCP(cmd.Context(), listen, cfg, log)
			}
			return serveStdio(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "serve over TCP at this address instead of stdio (e.g. :7777)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to an optional YAML settings file")
	cmd.Flags().StringVar(&workspace, "workspace", "", "workspace root to scan (overrides the config file)")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "viewtreelsp:", err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}

func serveStdio(ctx context.Context, cfg fileConfig, log zerolog.Logger) error {
	return serve(ctx, os.Stdin, os.Stdout, cfg, log)
}

func serveTCP(ctx context.Context, addr string, cfg fileConfig, log zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()
	log.Info().Str("addr", addr).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go func(conn net.Conn) {
			defer conn.Close()
			sessionLog := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
			if err := serve(ctx, conn, conn, cfg, sessionLog); err != nil {
				sessionLog.Warn().Err(err).Msg("session ended")
			}
		}(conn)
	}
}

// serve wires one session's codec, dispatcher, client handle, and driver
// together and runs it to completion.
func serve(ctx context.Context, r io.Reader, w io.Writer, cfg fileConfig, log zerolog.Logger) error {
	registry := pending.NewRegistry(log)
	sink := lspclient.NewChanSink(64)
	client := lspclient.New(sink, registry, log)

	svc := service.New(NewHandlerFactory(cfg.Workspace, log), client, log)
	driver := lspserver.New(svc, registry, log).WithMessages(sink.Messages())

	return driver.Serve(ctx, r, w)
}
