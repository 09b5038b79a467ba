package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner for interactive mode.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	title := termenv.String("chatflow").Foreground(p.Color("#818cf8")).Bold()
	tag := termenv.String("conversational flow engine " + version).Foreground(p.Color("244"))

	fmt.Println()
	fmt.Printf("  %s  %s\n", title, tag)
	fmt.Println()
}
