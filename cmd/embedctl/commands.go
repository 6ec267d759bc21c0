package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/probe"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/types"
)

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newURLCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "url <base> [key=value...]",
		Short: "Build a form URL with query parameters",
		Example: strings.TrimSpace(`
  embedctl url https://docuseal.com/d/abc email=a@b.co name=Ada`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := docuseal.Params{}
			for _, pair := range args[1:] {
				key, value, ok := strings.Cut(pair, "=")
				if !ok || key == "" {
					return fmt.Errorf("parameter %q is not key=value", pair)
				}
				params.Set(key, value)
			}

			formURL, err := docuseal.BuildFormURL(args[0], params)
			if err != nil {
				return err
			}
			if !docuseal.IsValidDocuSealURL(formURL, opts.hosts...) {
				opts.logger().Warn("URL is not served by an allowed DocuSeal host")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formURL)
			return err
		},
	}
}

func newFrameCommand(opts *options) *cobra.Command {
	var (
		cfg    docuseal.FrameConfig
		asHTML bool
	)

	cmd := &cobra.Command{
		Use:   "frame <src>",
		Short: "Print the iframe for a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame := docuseal.NewFrame(args[0], cfg)
			if asHTML {
				var buf bytes.Buffer
				if err := html.Render(&buf, frame.Node()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), buf.String())
				return err
			}

			attrs := make(map[string]string)
			for _, attr := range frame.Attributes() {
				attrs[attr.Key] = attr.Val
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"attributes": attrs,
				"trusted":    docuseal.IsValidDocuSealURL(args[0], opts.hosts...),
			})
		},
	}

	cmd.Flags().StringVar(&cfg.Title, "title", "", "frame title (default \"DocuSeal Form\")")
	cmd.Flags().StringVar(&cfg.ClassName, "class", "", "CSS class of the frame")
	cmd.Flags().BoolVar(&cfg.AllowFullscreen, "fullscreen", false, "allow fullscreen")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print HTML instead of JSON")
	return cmd
}

func newHeightCommand() *cobra.Command {
	bounds := docuseal.DefaultHeightBounds()

	cmd := &cobra.Command{
		Use:   "height <content-height>",
		Short: "Clamp a content height to the frame bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("content height: %w", err)
			}
			if bounds.Min > bounds.Max {
				return errors.New("--min exceeds --max")
			}
			height := docuseal.CalculateIframeHeight(content, bounds)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(height, 'f', -1, 64))
			return err
		},
	}

	cmd.Flags().Float64Var(&bounds.Min, "min", bounds.Min, "minimum height")
	cmd.Flags().Float64Var(&bounds.Max, "max", bounds.Max, "maximum height")
	return cmd
}

func newClassifyCommand(opts *options) *cobra.Command {
	var (
		origin  string
		allowed []string
	)

	cmd := &cobra.Command{
		Use:   "classify [message-json]",
		Short: "Classify a message posted to the host page",
		Long:  "Classify reads the message from the argument, or from stdin when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				data = []byte(args[0])
			} else {
				var err error
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			env := docuseal.Envelope{Origin: origin}
			if err := sonic.Unmarshal(data, &env.Message); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}

			var result types.ClassifyResponse
			classifier := docuseal.NewClassifier(allowed...)
			if len(allowed) > 0 {
				classifier.AllowHosts(opts.hosts...)
			}
			event, err := classifier.Classify(env)
			switch {
			case errors.Is(err, docuseal.ErrUntrustedOrigin):
				result.Reason = err.Error()
			case errors.Is(err, docuseal.ErrForeignMessage):
				result.Trusted = true
			case err != nil:
				return err
			default:
				result = types.ClassifyResponse{
					Belongs: true,
					Trusted: true,
					Kind:    string(event.Kind()),
					Event:   event,
				}
				if payload, err := event.Payload(); err != nil {
					result.Error = err.Error()
				} else {
					result.Payload = payload
				}
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "origin of the sending window")
	cmd.Flags().StringSliceVar(&allowed, "allow", nil, "trusted origins (default: any)")
	return cmd
}

func newProbeCommand(opts *options) *cobra.Command {
	cfg := probe.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Check that a form can be embedded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.AllowedHosts = opts.hosts
			cfg.RequestsPerSecond = 0

			logger := opts.logger()
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout*time.Duration(cfg.Retry.MaxRetries+1))
			defer cancel()

			report, err := probe.New(cfg, logger.Component("probe"), nil).Probe(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per attempt")
	cmd.Flags().IntVar(&cfg.Retry.MaxRetries, "retries", cfg.Retry.MaxRetries, "maximum attempts")
	cmd.Flags().DurationVar(&cfg.Retry.Delay, "delay", cfg.Retry.Delay, "base retry delay, multiplied by the attempt number")
	return cmd
}

func newPageCommand(opts *options) *cobra.Command {
	var (
		presetFile string
		preset     string
		bridge     string
		options    []string
		props      docuseal.FormProps
	)

	cmd := &cobra.Command{
		Use:   "page [src]",
		Short: "Render a standalone embed page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var presets *embed.Presets
			if presetFile != "" {
				var err error
				if presets, err = embed.LoadPresets(presetFile); err != nil {
					return err
				}
			}
			if len(args) == 1 {
				props.Src = args[0]
			}
			for _, option := range options {
				key, raw, _ := strings.Cut(option, "=")
				if raw == "" {
					raw = "true"
				}
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("option %s: %w", key, err)
				}
				if !props.SetFlag(key, v) {
					return fmt.Errorf("unknown option %q (known: %s)", key, strings.Join(docuseal.FlagKeys(), ", "))
				}
			}

			renderer := embed.NewRenderer(embed.Options{
				Hosts:      opts.hosts,
				BridgePath: bridge,
			}, presets)
			_, err := renderer.Render(cmd.OutOrStdout(), embed.Request{Preset: preset, Props: props})
			return err
		},
	}

	cmd.Flags().StringVar(&presetFile, "presets", "", "YAML or TOML presets file")
	cmd.Flags().StringVar(&preset, "preset", "", "preset name")
	cmd.Flags().StringVar(&bridge, "bridge", "", "relay websocket path")
	cmd.Flags().StringVar(&props.Email, "email", "", "submitter email")
	cmd.Flags().StringVar(&props.Name, "name", "", "submitter name")
	cmd.Flags().StringVar(&props.Role, "role", "", "submitter role")
	cmd.Flags().StringVar(&props.Title, "title", "", "frame title")
	cmd.Flags().StringSliceVar(&options, "option", nil, "display option as key[=bool], e.g. preview or with_title=false")
	return cmd
}
