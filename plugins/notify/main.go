// Package main provides a notification plugin that shows each resolved
// word as a desktop notification.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const title = "yubimoji"

// Request represents the input from the plugin executor.
type Request struct {
	Event       string  `json:"event"`
	Sign        string  `json:"sign"`
	Probability float64 `json:"probability"`
	Reading     string  `json:"reading"`
	Word        string  `json:"word"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	message, err := messageFor(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := notify(message); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	writeSuccessResponse()
}

func messageFor(req Request) (string, error) {
	switch req.Event {
	case "word":
		return fmt.Sprintf("%s (%s)", req.Word, req.Reading), nil
	case "sign":
		return fmt.Sprintf("%s %.0f%%", req.Sign, req.Probability*100), nil
	default:
		return "", fmt.Errorf("unknown event: %s", req.Event)
	}
}

func notify(message string) error {
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", quote(message), quote(title))
		return run("osascript", "-e", script)
	}
	return run("notify-send", title, message)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
