package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"guardiangw/internal/app"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logger     *zap.Logger
}

type serveOptions struct {
	listenAddress string
}

func main() {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	err := root.Execute()
	if opts.logger != nil {
		_ = opts.logger.Sync()
	}
	if err != nil {
		if opts.logger != nil {
			opts.logger.Fatal("command failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	opts.configPath = "gateway.yaml"
	opts.logLevel = "info"

	root := &cobra.Command{
		Use:           "guardiangw",
		Short:         "Streaming chat gateway over remote MCP tool backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := app.BuildLogger(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to gateway config file (empty for defaults)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)

	return root
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(root.logger)
			return application.Serve(ctx, app.ServeConfig{
				ConfigPath:    root.configPath,
				ListenAddress: opts.listenAddress,
			})
		},
	}

	bindServeFlags(cmd.Flags(), &opts)

	return cmd
}

func bindServeFlags(flags *pflag.FlagSet, opts *serveOptions) {
	flags.StringVar(&opts.listenAddress, "listen", opts.listenAddress, "override the chat listen address")
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate gateway configuration without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(root.logger)
			return application.ValidateConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: root.configPath,
			})
		},
	}

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if app.Build != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", app.Version, app.Build)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.Version)
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
