package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/adwizard/internal/cli"
	"github.com/aretw0/adwizard/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the option matcher and wizard sessions as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to Stderr; Stdout carries JSON-RPC.
		log.SetOutput(os.Stderr)
		logger := newLogger(cmd)

		stack, err := cli.BuildStack(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		srv := mcp.NewServer(stack.Wizard, logger)

		switch transport {
		case "stdio":
			logger.Info("Starting adwizard MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			if err := srv.ServeSSE(sigCtx, port); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
