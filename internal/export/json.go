// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/oranges-tui/internal/model"
)

// JSONExporter exports conversations to JSON. It always writes the full
// conversation; Options only add the export time.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	*model.Conversation
	ModelName  string `json:"model_name"`
	ExportedAt string `json:"exported_at,omitempty"`
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Conversation: conv,
		ModelName:    conv.Model.DisplayName(),
	}
	if !e.options.ExportedAt.IsZero() {
		doc.ExportedAt = e.options.ExportedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
