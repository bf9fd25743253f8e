package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keyregistry/internal/agent"
	"keyregistry/internal/faults"
	"keyregistry/internal/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "agent",
		Short:        "Register this host with a key registry controller",
		SilenceUsage: true,
	}
	root.AddCommand(registerCmd())
	return root
}

type registerOptions struct {
	controller    string
	activationKey string
	keyPath       string
	interval      time.Duration
	logLevel      string
}

func registerCmd() *cobra.Command {
	opts := registerOptions{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the host with an activation key and keep sending heartbeats",
		Example: "  agent register --controller http://192.168.1.10:8080 --activation-key 1-0f3c...\n" +
			"  CONTROLLER_URL=http://192.168.1.10:8080 agent register --activation-key 1-0f3c...",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRegister(ctx, opts)
		},
	}

	home, _ := os.UserHomeDir()
	flags := cmd.Flags()
	flags.StringVar(&opts.controller, "controller", os.Getenv("CONTROLLER_URL"), "controller base URL")
	flags.StringVar(&opts.activationKey, "activation-key", os.Getenv("ACTIVATION_KEY"), "activation key to register with")
	flags.StringVar(&opts.keyPath, "key", filepath.Join(home, ".keyregistry-agent", "id_ed25519"), "path of the host SSH private key")
	flags.DurationVar(&opts.interval, "interval", time.Minute, "heartbeat interval")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	return cmd
}

func runRegister(ctx context.Context, opts registerOptions) error {
	logger.Init(logger.Config{Level: opts.logLevel})
	if opts.controller == "" {
		return errors.New("--controller or CONTROLLER_URL is required")
	}
	if opts.activationKey == "" {
		return errors.New("--activation-key or ACTIVATION_KEY is required")
	}
	if opts.interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", opts.interval)
	}

	pub, err := agent.EnsureKeyPair(opts.keyPath)
	if err != nil {
		return fmt.Errorf("keygen failed: %w", err)
	}

	hostname, _ := os.Hostname()
	ip := agent.LocalIP()
	client := agent.NewClient(opts.controller)

	out, err := client.Register(ctx, agent.Registration{
		ActivationKey: opts.activationKey,
		Hostname:      hostname,
		IP:            ip,
		OS:            agent.DetectOS(),
		PublicKey:     pub,
	})
	if errors.Is(err, faults.ErrInvalidToken) {
		return fmt.Errorf("activation key refused: %w", err)
	}
	if err != nil {
		return err
	}
	logger.Info("registered", "server_id", out.ServerID, "host", ip, "entitlements", out.Entitlements)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("agent stopped")
			return nil
		case <-ticker.C:
			if err := client.Heartbeat(ctx, out.ServerID, ip); err != nil {
				logger.Warn("heartbeat failed", "err", err)
			}
		}
	}
}
