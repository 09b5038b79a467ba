package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatflow",
	Short: "Chatflow runs published conversational flows",
	Long:  `Chatflow executes conversational flow snapshots: it serves them over HTTP and WhatsApp, or runs them interactively in the terminal.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("flows", "./flows", "Directory containing flow snapshot files")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
