package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ctfarena",
	Short: "Authoritative capture-the-flag arena server",
	Long: `ctfarena runs the authoritative server for a 2-to-4 player
capture-the-flag arena game played over WebSocket.

Examples:
  ctfarena serve
  ctfarena serve --config configs/ctfarena.yaml --addr :9000
  ctfarena map --players 2`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
