// Package cli builds the formdemo command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdemo/internal/config"
	"github.com/goliatone/go-formdemo/internal/logging"
	"github.com/goliatone/go-formdemo/internal/server"
	"github.com/goliatone/go-formdemo/pkg/agent"
	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/orchestrator"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/tui"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
)

type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	env        map[string]string
}

// NewRoot constructs the root command. env replaces the process environment
// when non-nil.
func NewRoot(env map[string]string) *cobra.Command {
	g := &globals{env: env}
	root := &cobra.Command{
		Use:           "formdemo",
		Short:         "Server rendered demo form covering every native input type",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (text|json)")

	root.AddCommand(
		newServeCommand(g),
		newRenderCommand(g),
		newFillCommand(g),
		newAgentCommand(g),
		newOpenAPICommand(g),
	)
	return root
}

// load applies defaults, file, env and the persistent flags.
func (g *globals) load() (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: g.configPath, Environment: g.env})
	if err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	return cfg, cfg.Validate()
}

func (g *globals) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.Log)
}

func newServeCommand(g *globals) *cobra.Command {
	var (
		addr    string
		webhook string
		variant string
		noCSRF  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("webhook") {
				cfg.Submit.WebhookURL = webhook
			}
			if cmd.Flags().Changed("theme-variant") {
				cfg.Theme.Variant = variant
			}
			if noCSRF {
				cfg.Server.CSRF = false
			}
			logger := g.logger(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, server.WithLogger(logger))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&webhook, "webhook", "", "POST submissions as JSON to this URL")
	cmd.Flags().StringVar(&variant, "theme-variant", "", "theme variant (dark)")
	cmd.Flags().BoolVar(&noCSRF, "no-csrf", false, "disable the CSRF check")
	return cmd
}

func newRenderCommand(g *globals) *cobra.Command {
	var (
		fragment bool
		variant  string
		preset   string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the HTML page for the initial form state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if variant == "" {
				variant = cfg.Theme.Variant
			}
			options := []orchestrator.Option{}
			if preset != "" {
				transformer, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(filepath.Dir(preset)), filepath.Base(preset))
				if err != nil {
					return err
				}
				options = append(options, orchestrator.WithTransformer(transformer))
			}
			out, err := orchestrator.New(options...).Generate(cmd.Context(), orchestrator.Request{
				Component:     form.New(form.WithLogger(g.logger(cmd, cfg))),
				Renderer:      "vanilla",
				Theme:         cfg.Theme.Name,
				Variant:       variant,
				RenderOptions: render.RenderOptions{Fragment: fragment},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}
	cmd.Flags().BoolVar(&fragment, "fragment", false, "print only the <form> element")
	cmd.Flags().StringVar(&variant, "theme-variant", "", "theme variant (dark)")
	cmd.Flags().StringVar(&preset, "preset", "", "JSON or YAML file of label and placeholder overrides")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newFillCommand(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the form interactively in the terminal and submit it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			renderer, err := tui.New(
				tui.WithOutputFormat(tui.ParseOutputFormat(format)),
				tui.WithMessageOutput(cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			component := form.New(form.WithLogger(g.logger(cmd, cfg)))
			if err := renderer.Fill(cmd.Context(), component); err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
					return nil
				}
				return err
			}
			ack := component.Submit(cmd.Context())
			out, err := renderer.Serialize(component.State())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			fmt.Fprintln(cmd.ErrOrStderr(), ack.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format (json|form|pretty)")
	return cmd
}

func newAgentCommand(g *globals) *cobra.Command {
	var (
		baseURL string
		local   bool
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Fill and submit the form with generated values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger := g.logger(cmd, cfg)

			var target agent.Target
			switch {
			case local:
				renderer, err := vanilla.New()
				if err != nil {
					return err
				}
				target = agent.NewLocalTarget(form.New(form.WithLogger(logger)), renderer)
			case baseURL != "":
				remote, err := agent.NewRemoteTarget(baseURL)
				if err != nil {
					return err
				}
				if err := remote.Resolve(cmd.Context()); err != nil {
					logger.Warn("api description unavailable, using default paths", slog.Any("error", err))
				}
				target = remote
			default:
				return fmt.Errorf("agent: pass --url or --local")
			}

			options := []agent.Option{agent.WithLogger(logger)}
			if cmd.Flags().Changed("seed") {
				options = append(options, agent.WithSeed(seed))
			}
			report, runErr := agent.New(target, options...).Run(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "base URL of a running formdemo server")
	cmd.Flags().BoolVar(&local, "local", false, "fill an in-process form instead of a server")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible values")
	return cmd
}

func newOpenAPICommand(g *globals) *cobra.Command {
	var (
		servers []string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the HTTP surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := g.load(); err != nil {
				return err
			}
			out, err := openapi.JSON(cmd.Context(), form.New().Form(), openapi.Options{Servers: servers})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}
	cmd.Flags().StringSliceVar(&servers, "server", nil, "server URL to advertise (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRoot(nil)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
