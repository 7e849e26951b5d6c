package rpc

import (
	"strings"

	"github.com/quicklaunch/quicklaunch/pkg/diagnostics"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// TodoItemView is one item in GET /api/todos' itemsWithPriority.
type TodoItemView struct {
	Text               string `json:"text"`
	Priority           string `json:"priority,omitempty"`
	Section            string `json:"section,omitempty"`
	Description        string `json:"description,omitempty"`
	MarkedForImplement bool   `json:"markedForImplement"`
	MarkedParking      bool   `json:"markedParking"`
	IsAutoDetected     bool   `json:"isAutoDetected"`
	OriginalText       string `json:"originalText"`
}

// TodosResponse is the GET /api/todos payload.
type TodosResponse struct {
	Count             int            `json:"count"`
	Items             []string       `json:"items"`
	ItemsWithPriority []TodoItemView `json:"itemsWithPriority"`
}

func sectionFor(item diagnostics.TodoItem) string {
	switch {
	case item.IsAutoDetected:
		return "Auto-Detected Issues"
	case item.MarkedParking:
		return "Parking Lot"
	case item.MarkedForImplement:
		return "Next Session"
	case item.Priority != "":
		return item.Priority
	default:
		return ""
	}
}

// Todos implements GET /api/todos.
func (h *Handlers) Todos() (TodosResponse, *qlerr.Error) {
	items, err := h.Diag.ListTodos()
	if err != nil {
		return TodosResponse{}, asQLError(err)
	}
	resp := TodosResponse{Count: len(items), Items: make([]string, len(items)), ItemsWithPriority: make([]TodoItemView, len(items))}
	for i, item := range items {
		displayText := strings.TrimPrefix(item.Text, "[Auto] ")
		resp.Items[i] = displayText
		resp.ItemsWithPriority[i] = TodoItemView{
			Text: displayText, Priority: item.Priority, Section: sectionFor(item),
			Description: item.Description, MarkedForImplement: item.MarkedForImplement,
			MarkedParking: item.MarkedParking, IsAutoDetected: item.IsAutoDetected,
			OriginalText: item.Text,
		}
	}
	return resp, nil
}

// TriageItem is one entry in the POST /api/triage request body.
type TriageItem struct {
	Text     string                    `json:"text"`
	Priority string                    `json:"priority,omitempty"`
	Action   diagnostics.TriageAction  `json:"action"`
}

// TriageCounts is the POST /api/triage response: how many items were
// disposed of under each action.
type TriageCounts struct {
	Parking   int `json:"parking"`
	Implement int `json:"implement"`
	DontDo    int `json:"dontdo"`
}

// Triage implements POST /api/triage.
func (h *Handlers) Triage(items []TriageItem) (TriageCounts, *qlerr.Error) {
	requests := make([]diagnostics.TriageRequest, len(items))
	for i, item := range items {
		requests[i] = diagnostics.TriageRequest{Text: item.Text, Priority: item.Priority, Action: item.Action}
	}
	_, err := h.Diag.Triage(requests)
	if err != nil {
		return TriageCounts{}, asQLError(err)
	}
	var counts TriageCounts
	for _, item := range items {
		switch item.Action {
		case diagnostics.ActionParking:
			counts.Parking++
		case diagnostics.ActionImplement:
			counts.Implement++
		case diagnostics.ActionDontDo:
			counts.DontDo++
		}
	}
	return counts, nil
}

// ListResolutions implements GET /api/resolutions.
func (h *Handlers) ListResolutions() ([]types.ResolutionRecord, *qlerr.Error) {
	records, err := h.Diag.ListResolutions()
	if err != nil {
		return nil, asQLError(err)
	}
	return records, nil
}

// RecordResolutionResponse is the POST /api/resolutions payload.
type RecordResolutionResponse struct {
	TodoRemoved bool `json:"todoRemoved"`
}

// RecordResolution implements POST /api/resolutions: it appends the
// resolution and also deletes the matching TODO line, if any.
func (h *Handlers) RecordResolution(rec types.ResolutionRecord) (RecordResolutionResponse, *qlerr.Error) {
	removed, err := h.Diag.RecordResolution(rec)
	if err != nil {
		return RecordResolutionResponse{}, asQLError(err)
	}
	return RecordResolutionResponse{TodoRemoved: removed}, nil
}
