// ABOUTME: Cobra command tree for otango
// ABOUTME: serve runs the API; init, privilege and user administer it offline

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/config"
	"github.com/otango/otango/internal/server"
	"github.com/otango/otango/internal/store"
)

const banner = `
       _
  ___ | |_ __ _ _ __   __ _  ___
 / _ \| __/ _' | '_ \ / _' |/ _ \
| (_) | || (_| | | | | (_| | (_) |
 \___/ \__\__,_|_| |_|\__, |\___/
                      |___/
`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "otango",
		Short:         "Japanese dictionary server with public-key request signing",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().String("config", "", "config file (default $OTANGO_CONFIG or $XDG_CONFIG_HOME/otango/otango.yaml)")

	root.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newPrivilegeCmd(),
		newUserCmd(),
	)
	return root
}

// configPath resolves the --config flag against the environment.
func configPath(cmd *cobra.Command) (string, error) {
	flag, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	return config.ResolvePath(flag)
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBanner(out, cfg, path)

			logger := setupLogger(cfg.Logging, out)
			logger.Info("starting otango",
				"config", path,
				"http_addr", cfg.Server.HTTPAddr,
				"driver", cfg.Database.Driver,
			)

			srv, err := server.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}
}

func printBanner(out io.Writer, cfg *config.Config, path string) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(out, banner)
	gray.Fprintf(out, "    version: %s\n\n", version)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", path)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Database:  %s\n", cfg.Database.Driver)

	if cfg.Tailscale.Enabled {
		green.Fprint(out, "    ▶ ")
		fmt.Fprint(out, "Tailscale: ")
		cyan.Fprint(out, cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Fprint(out, " [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(out, " (ephemeral)")
		}
		fmt.Fprintln(out)
	} else {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "HTTP:      %s", cfg.Server.HTTPAddr)
		if cfg.Server.TLSCert != "" {
			yellow.Fprint(out, " [tls]")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	}
}

func newPrivilegeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "privilege <name> <None|Admin>",
		Short: "Set a user's privilege",
		Long: `Set a user's privilege level. This is the only way to grant Admin;
signed requests cannot change privileges.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			privilege, err := auth.ParsePrivilege(args[1])
			if err != nil {
				return err
			}
			return withAuthService(cmd, func(ctx context.Context, svc *auth.Service) error {
				if err := svc.SetPrivilege(ctx, args[0], privilege); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], privilege)
				return nil
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <name>",
		Short: "Show a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(cmd, func(ctx context.Context, svc *auth.Service) error {
				identity, err := svc.Identity(ctx, args[0])
				if err != nil {
					return err
				}
				printIdentity(cmd.OutOrStdout(), identity)
				return nil
			})
		},
	}
}

func printIdentity(out io.Writer, identity *auth.Identity) {
	fingerprint, err := identity.Fingerprint()
	if err != nil {
		fingerprint = "invalid key"
	}
	contact := "-"
	if identity.Contact != nil {
		contact = *identity.Contact
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name:        %s\n", identity.Name)
	fmt.Fprintf(&b, "Contact:     %s\n", contact)
	fmt.Fprintf(&b, "Privilege:   %s\n", identity.Privilege)
	fmt.Fprintf(&b, "Created:     %s\n", identity.Created.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Fingerprint: %s\n", fingerprint)
	fmt.Fprint(out, b.String())
}

// withAuthService opens the configured store for a one-off administrative
// command and closes it afterwards.
func withAuthService(cmd *cobra.Command, fn func(context.Context, *auth.Service) error) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format}, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := server.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	svc, err := server.NewAuthService(cfg, st, blocking.New(1), logger)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func closeStore(st store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Warn("closing store", "error", err)
	}
}
