package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/cli"
	"github.com/aretw0/flowkit/pkg/adapters/mcp"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/compiler"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Serves the flow as an MCP server. The tools of the entry node are exposed first;
every successful transition swaps in the tools of the target node.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.

Collected data is checked against the edge's input schema; rejected data is returned
to the agent as a tool error. Calls from one session never overlap; set redis.addr in
the config file to share that guarantee across processes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		rt, err := newRuntime(sigCtx, args)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())

		cfg := rt.Config.MCP
		if cmd.Flags().Changed("transport") {
			cfg.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("entry") {
			cfg.EntryNode, _ = cmd.Flags().GetString("entry")
		}

		flow := rt.Kit.Flow()
		if cfg.EntryNode == "" {
			if len(flow.Nodes) == 0 {
				return fmt.Errorf("flow %s has no nodes: %w", flow.ID, domain.ErrNodeNotFound)
			}
			cfg.EntryNode = flow.Nodes[0].ID
		}

		m, err := rt.Kit.Model("")
		if err != nil {
			return err
		}
		locker, err := rt.Locker()
		if err != nil {
			return err
		}
		host, err := rt.NewHost(m, rt.Logger)
		if err != nil {
			return err
		}
		t, dc := cli.Chain(host, locker, callbacks.EdgeSchemas(flow), rt.Logger)

		srv, err := mcp.NewServer(flow, t, dc,
			mcp.WithImplementation("flowkit", flowkit.Version),
			mcp.WithModel(m),
			mcp.WithCompilerOptions(compiler.WithLogger(rt.Logger), compiler.WithMetrics(rt.Metrics)),
			mcp.WithLogger(rt.Logger),
		)
		if err != nil {
			return err
		}
		if err := srv.Expose(cfg.EntryNode); err != nil {
			return err
		}

		switch cfg.Transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			rt.Logger.Info("Starting flowkit MCP Server (Stdio)", "flow", flow.ID, "entry", cfg.EntryNode)
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", cfg.Port)
			baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
			rt.Logger.Info("Starting flowkit MCP Server (SSE)", "flow", flow.ID, "entry", cfg.EntryNode, "port", cfg.Port)
			if err := srv.ServeSSE(sigCtx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			rt.Logger.Info("MCP Server stopped gracefully", "signal", sigCtx.Signal())
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", cfg.Transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("entry", "", "Node whose tools are exposed first (default: first node)")
}
