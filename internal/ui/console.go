// Package ui provides colorized console output for the modelbridge binaries:
// status badges, request lines, and startup messages.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
	brightCyan  = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// PrintSuccess logs a success line with green styling.
// Format: [ OK ] message
func PrintSuccess(msg string) {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println(msg)
}

// PrintWarning logs a warning line.
// Format: [WARN] message
func PrintWarning(msg string) {
	warningBadge.Print("[WARN]")
	fmt.Print(" ")
	warningText.Println(msg)
}

// PrintError logs an error line with red styling.
// Format: [FAIL] message
func PrintError(msg string) {
	errorBadge.Print(" FAIL ")
	fmt.Print(" ")
	errorText.Println(msg)
}

// PrintInfo logs general bridge information.
// Format: [BRIDGE] message
func PrintInfo(msg string) {
	infoBadge.Print("[BRIDGE]")
	fmt.Print(" ")
	infoText.Println(msg)
}

// PrintRoute logs which provider family a model name resolved to.
// Format: [ROUTE] model → provider
func PrintRoute(model, provider string) {
	infoBadge.Print("[ROUTE]")
	fmt.Print(" ")
	fmt.Print(model)
	mutedText.Print(" → ")
	accentText.Println(provider)
}

// PrintCacheHit logs a cache hit with lightning styling.
// Format: ⚡ CACHE HIT | key:xxxx...xxxx
func PrintCacheHit(cacheKey string) {
	brightCyan.Print("⚡ CACHE HIT ")
	fmt.Print("| key:")
	mutedText.Println(maskKeyShort(cacheKey))
}

// PrintRequest logs a request with styled output.
// Color-codes status, method, and latency for quick visual parsing.
func PrintRequest(method, path string, status int, latency time.Duration, model string) {
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	printMethodBadge(method)
	fmt.Print(" ")

	fmt.Printf("%-30s ", truncatePath(path, 30))

	printStatusBadge(status)
	fmt.Print(" ")

	printLatency(latency)
	fmt.Print(" ")

	if model != "" {
		mutedText.Printf("model:%s", model)
	}

	fmt.Println()
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

// printStatusBadge prints the status code with appropriate color.
func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 100ms, Yellow: < 500ms, Red: >= 500ms
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%4dms", ms)

	switch {
	case ms < 100:
		successText.Print(latencyStr)
	case ms < 500:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

// maskKeyShort returns a short masked version of a key or hash.
// Format: xxxx...xxxx
func maskKeyShort(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// truncatePath truncates a path to maxLen characters.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(host string, port int, providers []string) {
	fmt.Println()
	infoBadge.Print("[BRIDGE]")
	fmt.Print(" Server starting on ")
	brightCyan.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[BRIDGE]")
	fmt.Print(" Configured providers: ")
	if len(providers) > 0 {
		successText.Printf("%d", len(providers))
		mutedText.Printf(" %v\n", providers)
	} else {
		errorText.Println("0 (all requests will fail)")
	}

	fmt.Println()
	printEndpoints()
}

// printEndpoints prints the available API endpoints.
func printEndpoints() {
	mutedText.Println("  ┌─────────────────────────────────────────────────────────┐")
	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /v1/chat/completions ")
	mutedText.Print("  Chat completion (OpenAI-compatible)")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /v1/models           ")
	mutedText.Print("  List routable model families     ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /health              ")
	mutedText.Print("  Health check                     ")
	mutedText.Println(" │")

	mutedText.Println("  └─────────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye!")
}
