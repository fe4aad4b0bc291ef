package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"aigate/internal/domain"
)

type invokeResult struct {
	Result json.RawMessage `json:"result"`
}

func newToolsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and invoke aggregated tools",
	}
	cmd.AddCommand(
		newToolsListCmd(opts),
		newToolsInvokeCmd(opts),
	)
	return cmd
}

func newToolsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools of every connected server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var catalog domain.ToolCatalog
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/v1/tools", nil, &catalog); err != nil {
				return err
			}
			return printTools(catalog, opts.jsonOutput)
		},
	}
}

func newToolsInvokeCmd(opts *cliOptions) *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "invoke SERVER_ID TOOL",
		Short: "Invoke a tool on a connected server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arguments map[string]any
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
					return exitError{code: 2, message: fmt.Sprintf("--args must be a JSON object: %v", err)}
				}
			}
			var result invokeResult
			path := "/v1/tool-servers/" + url.PathEscape(args[0]) + "/tools/" + url.PathEscape(args[1])
			body := map[string]any{"arguments": arguments}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, body, &result); err != nil {
				return err
			}
			return printResultPayload("result", result.Result, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", "tool arguments as a JSON object")
	return cmd
}
