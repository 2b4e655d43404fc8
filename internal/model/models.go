// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MODEL TYPE
// =============================================================================

// Model identifies one of the simulated response profiles.
type Model string

const (
	// FastJuices is the lightweight profile with the shortest latency.
	FastJuices Model = "fast-juices"
	// PureJuice is the balanced reasoning profile.
	PureJuice Model = "pure-juice"
	// Juices is the extended, creative profile.
	Juices Model = "juices"
)

// DefaultModel is selected when nothing else is configured.
const DefaultModel = FastJuices

// Tier categorizes a model's capability level.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierExtended Tier = "extended"
)

// ErrUnknownModel is returned by ParseModel for input that matches no model.
var ErrUnknownModel = errors.New("unknown model")

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a simulated model.
type ModelInfo struct {
	// ID is the model identifier
	ID Model `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier Tier `json:"tier"`

	// ToolNum is the number shown in the model picker ("Tool 1")
	ToolNum int `json:"tool_num"`

	// Description is a one-line summary of the model's strengths
	Description string `json:"description"`

	// Intro is shown above an empty conversation
	Intro string `json:"intro"`

	// Latency is the simulated time before a reply lands
	Latency time.Duration `json:"latency_ns"`

	// Response is the canned reply text
	Response string `json:"response"`

	// Color is the accent color (ANSI 256 code) used by the terminal front end
	Color string `json:"color"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Catalog lists every model in picker order. It is fixed at process start.
var Catalog = []ModelInfo{
	{
		ID:          FastJuices,
		Name:        "Fast Juices",
		Tier:        TierFast,
		ToolNum:     1,
		Description: "Lightning fast responses",
		Intro:       "Get instant responses to your questions with our fastest model.",
		Latency:     500 * time.Millisecond,
		Response:    "Fast Juices here! I've processed your request instantly. How can I help you further?",
		Color:       "208", // orange
	},
	{
		ID:          PureJuice,
		Name:        "Pure Juice",
		Tier:        TierBalanced,
		ToolNum:     2,
		Description: "Better thinking",
		Intro:       "Experience enhanced reasoning and thoughtful analysis.",
		Latency:     1500 * time.Millisecond,
		Response:    "Pure Juice analyzing your query with enhanced reasoning... Based on careful consideration, here's my thoughtful response to your question.",
		Color:       "214", // amber
	},
	{
		ID:          Juices,
		Name:        "Juices",
		Tier:        TierExtended,
		ToolNum:     3,
		Description: "Game & script specialist",
		Intro:       "Create games and scripts with deep, specialized thinking.",
		Latency:     3000 * time.Millisecond,
		Response:    "Juices here! I specialize in game development and scripting. Let me think deeply about this... Here's a comprehensive solution with detailed implementation steps.",
		Color:       "196", // red
	},
}

// All returns the model identifiers in picker order.
func All() []Model {
	ids := make([]Model, len(Catalog))
	for i, info := range Catalog {
		ids[i] = info.ID
	}
	return ids
}

// GetModelInfo returns the catalog entry for m.
func GetModelInfo(m Model) (ModelInfo, bool) {
	for _, info := range Catalog {
		if info.ID == m {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ParseModel resolves a model from its ID, tier name or tool number.
// Matching is case-insensitive.
func ParseModel(s string) (Model, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, info := range Catalog {
		if key == string(info.ID) ||
			key == string(info.Tier) ||
			key == fmt.Sprint(info.ToolNum) ||
			key == strings.ToLower(info.Name) {
			return info.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// =============================================================================
// MODEL METHODS
// =============================================================================

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}

// Valid reports whether m is in the catalog.
func (m Model) Valid() bool {
	_, ok := GetModelInfo(m)
	return ok
}

// Info returns the catalog entry, or a zero ModelInfo for unknown models.
func (m Model) Info() ModelInfo {
	info, _ := GetModelInfo(m)
	return info
}

// DisplayName returns the human-readable model name.
func (m Model) DisplayName() string {
	if info, ok := GetModelInfo(m); ok {
		return info.Name
	}
	return string(m)
}

// Latency returns the simulated reply delay.
func (m Model) Latency() time.Duration {
	return m.Info().Latency
}

// Response returns the canned reply text.
func (m Model) Response() string {
	return m.Info().Response
}

// IsDeepThink reports whether m is one of the "deep think" profiles.
func (m Model) IsDeepThink() bool {
	return m == PureJuice || m == Juices
}
