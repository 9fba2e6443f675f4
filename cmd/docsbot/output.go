package main

import "fmt"

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func colorize(color, s string) string {
	if noColor {
		return s
	}
	return color + s + colorReset
}

func printSuccess(format string, args ...any) {
	fmt.Printf("%s %s\n", colorize(colorGreen, "✓"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Printf("%s %s\n", colorize(colorRed, "✗"), fmt.Sprintf(format, args...))
}

func printStatus(label, format string, args ...any) {
	fmt.Printf("  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
