// Package ui provides colorized console output for the modelbridge binaries.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintBanner displays the startup banner.
func PrintBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Println("╔══════════════════════════════════════════════════╗")
	cyan.Print("║  ")
	magenta.Print("MODELBRIDGE")
	dim.Print("  │  ")
	white.Print("one contract, every provider")
	dim.Print("  │  ")
	white.Print("v1.0.0")
	cyan.Println("  ║")
	cyan.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()
}

// PrintMiniBanner displays a smaller banner for the demo harness.
func PrintMiniBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)

	fmt.Println()
	cyan.Print("╔══════════════════════════════╗")
	fmt.Println()
	cyan.Print("║  ")
	magenta.Print("MODELBRIDGE DEMO HARNESS")
	cyan.Print("    ║")
	fmt.Println()
	cyan.Print("╚══════════════════════════════╝")
	fmt.Println()
	fmt.Println()
}
