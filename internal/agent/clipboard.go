package agent

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
)

// ClipboardReader returns the current clipboard text. Implementations
// must treat unavailable clipboards as an error; the session degrades
// that to an empty snapshot rather than failing classification.
type ClipboardReader interface {
	Read(ctx context.Context) (string, error)
}

// CommandClipboard shells out to the platform clipboard utility. Used
// when the editor shim does not include a clipboard snapshot in the
// change event.
type CommandClipboard struct {
	name string
	args []string
}

// NewCommandClipboard picks the clipboard command for the current platform
func NewCommandClipboard() *CommandClipboard {
	switch runtime.GOOS {
	case "darwin":
		return &CommandClipboard{name: "pbpaste"}
	case "windows":
		return &CommandClipboard{name: "powershell", args: []string{"-NoProfile", "-Command", "Get-Clipboard"}}
	default:
		return &CommandClipboard{name: "xclip", args: []string{"-selection", "clipboard", "-o"}}
	}
}

// Read executes the clipboard command
func (c *CommandClipboard) Read(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.name, c.args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}
