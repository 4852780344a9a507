package api

import (
	"encoding/json"
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

// ParseRequest is the JSON body of a parse submission. Build is optional; the
// configured build for the combatant's class and spec is used when absent.
type ParseRequest struct {
	ID        string            `json:"id,omitempty"`
	Fight     combat.Fight      `json:"fight"`
	Combatant combat.Combatant  `json:"combatant"`
	Build     *config.Build     `json:"build,omitempty"`
	Events    []json.RawMessage `json:"events"`
}

// Parse decodes the events and returns the engine input.
func (req *ParseRequest) Parse() (engine.Parse, error) {
	events, err := event.DecodeAll(req.Events)
	if err != nil {
		return engine.Parse{}, err
	}
	if req.Build != nil && len(req.Build.Modules) == 0 {
		return engine.Parse{}, fmt.Errorf("build %s has no modules", req.Build.Key())
	}
	return engine.Parse{
		ID:        req.ID,
		Fight:     req.Fight,
		Combatant: req.Combatant,
		Build:     req.Build,
		Events:    events,
	}, nil
}

// BatchRequest submits several parses for asynchronous processing.
type BatchRequest struct {
	Parses []ParseRequest `json:"parses"`
}

// BatchItem reports the fate of one parse of a batch.
type BatchItem struct {
	Index int    `json:"index"`
	JobID string `json:"job_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// BatchResponse is returned for an accepted batch.
type BatchResponse struct {
	Total    int         `json:"total"`
	Queued   int         `json:"queued"`
	Rejected int         `json:"rejected"`
	Items    []BatchItem `json:"items"`
}
