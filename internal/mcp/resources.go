package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) planResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Plan == nil {
		return nil, errors.New(notLoaded(snap))
	}

	data, err := json.Marshal(map[string]any{
		"plan":    snap.Plan,
		"summary": snap.Plan.Summarize(),
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) completionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(completionView{SelectedDay: snap.SelectedDay, Completion: snap.Completion})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
