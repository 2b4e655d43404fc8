// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversation transcripts.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/oranges-tui/internal/model"
)

// ErrUnknownFormat is returned by ForFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation to a document format.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the file extension (e.g. ".md").
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with model, dates and counts.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool

	// ExportedAt is recorded in the metadata header. Zero omits it.
	ExportedAt time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForFormat returns the exporter for "md"/"markdown" or "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (use md or json)", ErrUnknownFormat, format)
	}
}

// Write exports conv with exporter and writes the result to w.
func Write(w io.Writer, conv *model.Conversation, exporter Exporter) error {
	data, err := exporter.Export(conv)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func validate(conv *model.Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	if conv.IsEmpty() {
		return fmt.Errorf("conversation has no messages")
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// Markdown writes conv to w as Markdown with default options.
func Markdown(w io.Writer, conv *model.Conversation) error {
	return Write(w, conv, NewMarkdownExporter(nil))
}

// JSON writes conv to w as indented JSON.
func JSON(w io.Writer, conv *model.Conversation) error {
	return Write(w, conv, NewJSONExporter(nil))
}
