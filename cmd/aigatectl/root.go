package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"aigate/internal/domain"
)

const addrEnvVar = "AIGATE_ADDR"

type cliOptions struct {
	addr       string
	timeout    time.Duration
	jsonOutput bool
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		addr:    "http://" + domain.DefaultHTTPListenAddress,
		timeout: 30 * time.Second,
	}

	root := &cobra.Command{
		Use:           "aigatectl",
		Short:         "CLI client for the aigate HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.addr, "addr", opts.addr, "gateway base URL (env "+addrEnvVar+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		newServersCmd(&opts),
		newToolsCmd(&opts),
		newRouteCmd(&opts),
		newCompleteCmd(&opts),
	)

	return root
}

// applyRootFlagBindings lets AIGATE_ADDR stand in for --addr when the flag
// was not given.
func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	addrSet := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "addr" {
			addrSet = true
		}
	})
	if !addrSet {
		if env := strings.TrimSpace(os.Getenv(addrEnvVar)); env != "" {
			opts.addr = env
		}
	}
	if !strings.Contains(opts.addr, "://") {
		opts.addr = "http://" + opts.addr
	}
	opts.addr = strings.TrimRight(opts.addr, "/")
}
