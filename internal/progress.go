package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// TypingDelay is how long a request may run before the indicator appears
const TypingDelay = 800 * time.Millisecond

// ShowProgress runs fn while showing a spinner with message on stderr.
// Outside a terminal it just runs fn.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogDebug("%s", message)
		return fn()
	}
	return showProgressSimple(ctx, os.Stderr, message, 0, fn)
}

// ShowTyping runs fn and shows the typing indicator if it takes longer than TypingDelay
func ShowTyping(ctx context.Context, fn func() error) error {
	if !isTerminal(os.Stderr) {
		return fn()
	}
	return showProgressSimple(ctx, os.Stderr, "Assistant is typing...", TypingDelay, fn)
}

// showProgressSimple uses a simple text-based spinner
func showProgressSimple(ctx context.Context, w io.Writer, message string, delay time.Duration, fn func() error) error {
	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan bool, 1)

	// Start spinner
	go func() {
		shown := false
		defer func() { spinnerDone <- shown }()

		if delay > 0 {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			char := spinnerChars[i%len(spinnerChars)]
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(char), message)
			shown = true
			i++
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Run the function
	go func() {
		done <- fn()
	}()

	// fn observes ctx itself and always runs to completion
	err := <-done
	close(stop)
	if shown := <-spinnerDone; shown {
		// clear the spinner line
		fmt.Fprintf(w, "\r\033[K")
	}
	return err
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	return isTerminal(w)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
