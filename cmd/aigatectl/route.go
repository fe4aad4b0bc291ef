package main

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"aigate/internal/domain"
)

type routeArgs struct {
	tier        string
	mode        string
	contextSize int
}

func (a *routeArgs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.tier, "tier", "free", "subscription tier (free, pro, creator)")
	cmd.Flags().StringVar(&a.mode, "mode", "chat", "request mode (chat, code, redesign, deep_dive, rag)")
	cmd.Flags().IntVar(&a.contextSize, "context-size", 0, "estimated context size in tokens")
}

func newRouteCmd(opts *cliOptions) *cobra.Command {
	args := &routeArgs{}
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show which backend a request would be routed to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var decision domain.RouteDecision
			body := map[string]any{"tier": args.tier, "mode": args.mode, "contextSize": args.contextSize}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/v1/route", body, &decision); err != nil {
				return err
			}
			if err := printRouteDecision(decision, opts.jsonOutput); err != nil {
				return err
			}
			if !decision.Permitted {
				return exitSilent(4)
			}
			return nil
		},
	}
	args.bind(cmd)
	return cmd
}

func newCompleteCmd(opts *cliOptions) *cobra.Command {
	args := &routeArgs{}
	var system string
	cmd := &cobra.Command{
		Use:   "complete PROMPT...",
		Short: "Run a routed chat completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, prompt []string) error {
			messages := make([]domain.CompletionMessage, 0, 2)
			if system != "" {
				messages = append(messages, domain.CompletionMessage{Role: "system", Content: system})
			}
			messages = append(messages, domain.CompletionMessage{Role: "user", Content: strings.Join(prompt, " ")})

			body := map[string]any{
				"tier":        args.tier,
				"mode":        args.mode,
				"contextSize": args.contextSize,
				"messages":    messages,
			}
			var result domain.CompletionResult
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/v1/completions", body, &result); err != nil {
				return err
			}
			return printCompletion(result, opts.jsonOutput)
		},
	}
	args.bind(cmd)
	cmd.Flags().StringVar(&system, "system", "", "optional system prompt")
	return cmd
}
