package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ndanaka/chatflow"
	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/internal/presentation/tui"
	"github.com/ndanaka/chatflow/pkg/engine"
)

var chatCmd = &cobra.Command{
	Use:   "chat [typebot-id]",
	Short: "Run a flow interactively in the terminal",
	Long:  `Loads the flow snapshots and runs one of them as a terminal conversation. Without an argument, the flow with the alphabetically first id is used.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flowsDir, _ := cmd.Flags().GetString("flows")
		debug, _ := cmd.Flags().GetBool("debug")

		typebotID := ""
		if len(args) > 0 {
			typebotID = args[0]
		}
		if err := runChat(flowsDir, typebotID, debug); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(flowsDir, typebotID string, debug bool) error {
	logger := logging.NewNop()
	if debug {
		logger = logging.New(slog.LevelDebug)
	}

	bot := chatflow.New(
		chatflow.WithLogger(logger),
		chatflow.WithEnvironment("cli"),
	)
	if err := bot.LoadFlowsDir(flowsDir); err != nil {
		return err
	}

	if typebotID == "" {
		flows := bot.Flows().All()
		for _, f := range flows {
			if typebotID == "" || f.ID < typebotID {
				typebotID = f.ID
			}
		}
	}

	tui.PrintBanner(chatflow.Version)

	renderer := tui.NewRenderer()
	ctx := context.Background()

	reply, err := bot.StartChat(ctx, typebotID)
	if err != nil {
		return err
	}
	renderer.RenderReply(reply)

	scanner := bufio.NewScanner(os.Stdin)
	for !reply.IsCompleted && reply.Input != nil {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = resolveChoiceShortcut(line, reply)

		reply, err = bot.SendMessage(ctx, reply.SessionID, line)
		if err != nil {
			return err
		}
		renderer.RenderReply(reply)
	}
	return nil
}

// resolveChoiceShortcut lets the user answer a choice prompt with its
// number instead of typing the option text.
func resolveChoiceShortcut(line string, reply *engine.Reply) string {
	if reply.Input == nil || len(reply.Input.Items) == 0 {
		return line
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(reply.Input.Items) {
		return line
	}
	return reply.Input.Items[n-1].Content
}
