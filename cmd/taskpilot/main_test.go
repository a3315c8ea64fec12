package main

import (
	"context"
	"testing"

	"github.com/zen-systems/taskpilot/pkg/adapter"
	"github.com/zen-systems/taskpilot/pkg/classify"
	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/model"
	"github.com/zen-systems/taskpilot/pkg/pilot"
)

func TestRemapRegistryToMock(t *testing.T) {
	registry := model.DefaultRegistry()
	remapRegistryToMock(registry)

	for _, d := range registry.All() {
		if d.Adapter != "mock" {
			t.Errorf("model %s adapter = %s, want mock", d.ID, d.Adapter)
		}
	}
}

func TestMockFallbackServesRequests(t *testing.T) {
	registry := model.DefaultRegistry()
	remapRegistryToMock(registry)

	manager := pilot.NewManager(*config.DefaultRoutingConfig(), registry,
		map[string]adapter.Adapter{"mock": adapter.NewMockAdapter()})

	req, err := manager.AnalyzeRequest("implement a binary search function", classify.Hints{})
	if err != nil {
		t.Fatalf("AnalyzeRequest() error = %v", err)
	}

	decision, response, err := manager.GenerateAdaptive(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateAdaptive() error = %v", err)
	}
	if decision.Adapter != "mock" {
		t.Errorf("decision adapter = %s, want mock", decision.Adapter)
	}
	if response == "" {
		t.Error("response is empty")
	}
}
