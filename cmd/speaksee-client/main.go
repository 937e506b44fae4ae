// Voice client - streams microphone audio to a speech-to-image server and
// serves the session to local front ends
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/speaksee/client/internal/audio"
	"github.com/GriffinCanCode/speaksee/client/internal/config"
	"github.com/GriffinCanCode/speaksee/client/internal/orchestrator"
	"github.com/GriffinCanCode/speaksee/client/internal/server"
	"github.com/GriffinCanCode/speaksee/client/internal/trace"
)

var (
	version    = "0.1.0"
	serverURL  string
	httpAddr   string
	logLevel   string
	autoListen bool
)

var rootCmd = &cobra.Command{
	Use:   "speaksee-client",
	Short: "Voice client for the speak-to-image server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the voice client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd)
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("speaksee-client v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "server WebSocket URL (overrides SPEAKSEE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&httpAddr, "http", "", "local API listen address (overrides HTTP_ADDR)")
		c.Flags().BoolVar(&autoListen, "auto-listen", true, "start recording on voice activity")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if f := cmd.Flags().Lookup("auto-listen"); f != nil && f.Changed {
		cfg.AutoListen = autoListen
	}
	return cfg, cfg.Validate()
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

func runClient(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, tc := trace.EnsureContext(ctx)

	src := audio.NewPortAudioSource(cfg.FramesPerBuffer, cfg.ExcludedAudioDevices)
	mgr := orchestrator.New(ctx, cfg, src)
	srv := server.New(ctx, mgr, mgr.Metrics())

	if err := mgr.Start(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("client starting", "http", cfg.HTTPAddr, "server", cfg.ServerURL, "trace_id", tc.TraceID)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), orchestrator.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	mgr.Stop()
	cancel()
	slog.Info("shutdown complete")
	return nil
}

func listDevices(cmd *cobra.Command) error {
	cfg := config.Load()
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no input devices")
		return nil
	}
	selected := audio.SelectInput(devices, cfg.ExcludedAudioDevices)
	for i, d := range devices {
		mark := " "
		if i == selected {
			mark = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-40s channels=%d rate=%.0f\n", mark, d.Name, d.Channels, d.DefaultRate)
	}
	return nil
}
