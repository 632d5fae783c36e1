// Package main provides a plugin that appends each transition to a text
// file, one tab separated line per transition.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
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

// Config is read from the manifest. A relative Path is resolved against
// the plugin directory.
type Config struct {
	Path string `json:"path"`
}

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		writeErrorResponse(os.Stdout, err.Error())
	}
}

func run(in io.Reader, out io.Writer) error {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}

	cfg := Config{Path: "transitions.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := appendLine(cfg.Path, formatLine(req)); err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]string{"path": cfg.Path})
	return json.NewEncoder(out).Encode(Response{Success: true, Data: data})
}

func formatLine(req Request) string {
	from := req.From
	if from == "" {
		from = "-"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n", req.At, req.Session, from, req.To, req.Trigger)
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

// writeErrorResponse writes an error response to w.
func writeErrorResponse(w io.Writer, errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(w).Encode(resp)
}
