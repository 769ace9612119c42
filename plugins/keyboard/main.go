// Package main provides a keyboard plugin that types each resolved word
// into the focused application. It pastes through the clipboard on macOS
// and uses xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	Sign      string `json:"sign"`
	Reading   string `json:"reading"`
	Word      string `json:"word"`
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

	text, err := textFor(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := typeText(text); err != nil {
		writeErrorResponse(fmt.Sprintf("typing %q failed: %v", text, err))
		return
	}

	writeSuccessResponse()
}

// textFor picks what to type for an event.
func textFor(req Request) (string, error) {
	switch req.Event {
	case "word":
		if req.Word == "" {
			return "", fmt.Errorf("word event without a word")
		}
		return req.Word, nil
	case "sign":
		if req.Sign == "" {
			return "", fmt.Errorf("sign event without a sign")
		}
		return req.Sign, nil
	default:
		return "", fmt.Errorf("unknown event: %s", req.Event)
	}
}

func typeText(text string) error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(buildPasteScript(text))
	}
	return run("xdotool", "type", "--clearmodifiers", "--", text)
}

// buildPasteScript puts text on the clipboard and pastes it. Keystroke
// cannot type kana or kanji directly.
func buildPasteScript(text string) string {
	return fmt.Sprintf(`set the clipboard to %s
tell application "System Events" to keystroke "v" using {command down}`, appleScriptString(text))
}

func appleScriptString(s string) string {
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

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
