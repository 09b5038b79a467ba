package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndanaka/chatflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of chatflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chatflow version %s\n", chatflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
