package main

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"aigate/internal/domain"
)

type addServerResult struct {
	Server    domain.Registration `json:"server"`
	Connected bool                `json:"connected"`
}

type serversResult struct {
	Servers []domain.ServerStatus `json:"servers"`
}

type reconnectResult struct {
	Connected bool `json:"connected"`
}

func newServersCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage registered tool servers",
	}
	cmd.AddCommand(
		newServersListCmd(opts),
		newServersAddCmd(opts),
		newServersRemoveCmd(opts),
		newServersReconnectCmd(opts),
	)
	return cmd
}

func newServersListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered tool servers and their connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result serversResult
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/v1/tool-servers", nil, &result); err != nil {
				return err
			}
			return printServers(result.Servers, opts.jsonOutput)
		},
	}
}

func newServersAddCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME URL",
		Short: "Register a tool server and try to connect it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result addServerResult
			body := map[string]string{"name": args[0], "url": args[1]}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/v1/tool-servers", body, &result); err != nil {
				return err
			}
			return printAddedServer(result, opts.jsonOutput)
		},
	}
}

func newServersRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a tool server registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodDelete, "/v1/tool-servers/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			return printAction("removed", args[0], opts.jsonOutput)
		},
	}
}

func newServersReconnectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconnect ID",
		Short: "Replace a tool server's session with a fresh connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result reconnectResult
			path := "/v1/tool-servers/" + url.PathEscape(args[0]) + "/reconnect"
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, nil, &result); err != nil {
				return err
			}
			if err := printReconnect(args[0], result.Connected, opts.jsonOutput); err != nil {
				return err
			}
			if !result.Connected {
				return exitSilent(4)
			}
			return nil
		},
	}
}
