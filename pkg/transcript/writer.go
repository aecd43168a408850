package transcript

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/williamokano/sshrun/pkg/session"
)

// WriteFile renders a session transcript to path. The format is plain text,
// one block per command, so transcripts stay greppable on any backend.
func WriteFile(path, remoteName string, timestamp time.Time, results []session.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "# remote: %s\n", remoteName)
	fmt.Fprintf(w, "# started: %s\n", timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "# commands: %d\n", len(results))

	for i, result := range results {
		fmt.Fprintf(w, "\n--- command %d/%d ---\n", i+1, len(results))
		fmt.Fprintf(w, "$ %s\n", result.Command)
		fmt.Fprintf(w, "exit: %d\n", result.ExitCode)
		fmt.Fprintf(w, "duration: %s\n", result.Duration)
		if result.Stdout != "" {
			fmt.Fprintf(w, "stdout:\n%s", result.Stdout)
			if !endsWithNewline(result.Stdout) {
				fmt.Fprintln(w)
			}
		}
		if result.Stderr != "" {
			fmt.Fprintf(w, "stderr:\n%s", result.Stderr)
			if !endsWithNewline(result.Stderr) {
				fmt.Fprintln(w)
			}
		}
	}

	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close transcript file: %w", err)
	}

	return nil
}

func endsWithNewline(s string) bool {
	return len(s) > 0 && s[len(s)-1] == '\n'
}
