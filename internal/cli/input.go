// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/oranges-tui/internal/config"
	"github.com/jeranaias/oranges-tui/internal/logging"
)

// ErrInterrupted is returned by a LineReader when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of input at a time. ReadLine returns io.EOF
// when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// =============================================================================
// LINER INPUT (interactive terminals)
// =============================================================================

// historyReader provides arrow-key history and line editing.
type historyReader struct {
	line        *liner.State
	historyFile string
}

// newHistoryReader creates a liner-backed reader and loads history from
// historyFile.
func newHistoryReader(historyFile string) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &historyReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			logging.Logger.Debug("history not loaded", "file", historyFile, "err", err)
		}
		f.Close()
	}
	return r
}

func (r *historyReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *historyReader) Close() error {
	defer r.line.Close()

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	defer f.Close()

	_, err = r.line.WriteHistory(f)
	return err
}

// =============================================================================
// PLAIN INPUT (pipes and tests)
// =============================================================================

// pipeReader reads lines from a non-terminal source. Lines may be any
// length. The prompt is written to out so transcripts stay readable.
type pipeReader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPipeReader returns a LineReader over in that echoes prompts to out.
// A nil out discards prompts.
func NewPipeReader(in io.Reader, out io.Writer) LineReader {
	if out == nil {
		out = io.Discard
	}
	return &pipeReader{reader: bufio.NewReader(in), out: out}
}

func (r *pipeReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line[:len(line)-1], "\r"), nil
}

func (r *pipeReader) Close() error {
	return nil
}
