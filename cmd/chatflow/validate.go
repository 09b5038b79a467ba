package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ndanaka/chatflow"
	"github.com/ndanaka/chatflow/pkg/flow"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check flow snapshots for consistency",
	Long:  `Parses the given snapshot files (or every snapshot in the flows directory) and reports dangling edges, duplicate ids and empty flows.`,
	Run: func(cmd *cobra.Command, args []string) {
		flowsDir, _ := cmd.Flags().GetString("flows")
		if err := runValidate(flowsDir, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("All flows are valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(flowsDir string, args []string) error {
	paths := args
	if len(paths) == 0 {
		entries, err := os.ReadDir(flowsDir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
				paths = append(paths, filepath.Join(flowsDir, entry.Name()))
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no flow snapshots found in %s", flowsDir)
		}
	}

	failed := false
	for _, path := range paths {
		typebot, err := chatflow.ReadFlowFile(path)
		if err != nil {
			return err
		}
		problems := flow.Lint(typebot)
		if len(problems) == 0 {
			fmt.Printf("%s: ok\n", path)
			continue
		}
		failed = true
		for _, p := range problems {
			fmt.Printf("%s: [%s] %s\n", path, p.Code, p.Message)
		}
	}
	if failed {
		return fmt.Errorf("some flows have problems")
	}
	return nil
}
