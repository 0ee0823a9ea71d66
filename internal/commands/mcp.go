package commands

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwulff/storytrack/internal/mcpserver"
)

func addMCP(topLevel *cobra.Command, ro *rootOptions) {
	var (
		transport string
		httpHost  string
		httpPort  int
		httpPath  string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "start the Model Context Protocol server",
		Long: `Launch an MCP server that exposes stories and timeline editing
(reorder, move, add, remove) to MCP clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			defer withLogging(cfg)()
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			runner := mcpserver.Runner{
				Store:            store,
				Name:             "storytrack",
				Version:          "dev",
				HTTPEndpointPath: strings.TrimSpace(httpPath),
			}
			switch strings.ToLower(strings.TrimSpace(transport)) {
			case "", string(mcpserver.TransportStdio):
				runner.Transport = mcpserver.TransportStdio
			case string(mcpserver.TransportHTTP):
				if httpPort < 0 || httpPort > 65535 {
					return fmt.Errorf("invalid --http-port %d", httpPort)
				}
				runner.Transport = mcpserver.TransportHTTP
				runner.HTTPListenAddr = net.JoinHostPort(httpHost, strconv.Itoa(httpPort))
				runner.OnHTTPListening = func(addr net.Addr) {
					fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s%s\n", addr, runner.HTTPEndpointPath)
				}
			default:
				return fmt.Errorf("unknown transport %q", transport)
			}
			return runner.Do(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "transport to use: stdio or http")
	cmd.Flags().StringVar(&httpHost, "http-host", "127.0.0.1", "host for the http transport")
	cmd.Flags().IntVar(&httpPort, "http-port", 8080, "port for the http transport")
	cmd.Flags().StringVar(&httpPath, "http-path", "/mcp", "endpoint path for the http transport")
	topLevel.AddCommand(cmd)
}
