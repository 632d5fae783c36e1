// Package main provides a desktop notification plugin. It announces
// scene transitions through osascript on macOS and notify-send elsewhere.
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
	Event   string          `json:"event"`
	Session string          `json:"session"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Trigger string          `json:"trigger"`
	At      string          `json:"at"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	Title string `json:"title"`
	// Messages overrides the body per target state.
	Messages map[string]string `json:"messages"`
}

// defaultMessages maps state names to notification text.
var defaultMessages = map[string]string{
	"heart":       "Sending some love",
	"photo":       "Photo time",
	"fireworks":   "Fireworks!",
	"planet":      "A planet appears",
	"celebration": "Celebrating",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "transition" {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	cfg := Config{Title: "mudra"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	body := message(cfg, req.To)
	if err := notify(cfg.Title, body); err != nil {
		writeErrorResponse(fmt.Sprintf("notify failed: %v", err))
		return
	}
	writeSuccessResponse()
}

func message(cfg Config, to string) string {
	if m, ok := cfg.Messages[to]; ok {
		return m
	}
	if m, ok := defaultMessages[to]; ok {
		return m
	}
	return "Now showing " + to
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escape(body), escape(title))
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// escape quotes s for an AppleScript string literal.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
