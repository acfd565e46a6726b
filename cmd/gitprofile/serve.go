package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/gitprofile/internal/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve profile tools over MCP (stdio transport)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mgr, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		mcpSrv := api.NewMCPServer(api.MCPDeps{Profiles: mgr, Version: version})
		slog.Info("MCP server started (stdio transport)")
		if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profile HTTP API on the loopback interface",
	Long: `Serve the profile HTTP API on 127.0.0.1.

Routes: GET /health, GET /profiles, POST /profiles, POST /switch,
GET /identity, and the MCP streamable HTTP transport at /mcp.
Set GITPROFILE_SERVER_TOKEN to require a bearer token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func runServer(ctx context.Context) error {
	mgr, closeFn, err := openManager()
	if err != nil {
		return err
	}
	defer closeFn()

	mcpSrv := api.NewMCPServer(api.MCPDeps{Profiles: mgr, Version: version})
	handler := api.NewAppHandler(api.AppDeps{
		Profiles: mgr,
		Token:    cfg.Server.Token,
		MCP:      server.NewStreamableHTTPServer(mcpSrv),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	if cfg.Server.Token == "" {
		printWarning("no server token set; API is open to local processes")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printStep("gitprofile listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from server.port)")

	rootCmd.AddCommand(mcpCmd, serveCmd)
}
