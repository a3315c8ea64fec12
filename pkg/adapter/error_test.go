package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "temporary flag", err: &AdapterError{Temporary: true}, want: true},
		{name: "rate limited", err: &AdapterError{Status: 429}, want: true},
		{name: "server error", err: &AdapterError{Status: 503}, want: true},
		{name: "client error", err: &AdapterError{Status: 400}, want: false},
		{name: "unauthorized", err: &AdapterError{Status: 401}, want: false},
		{
			name: "wrapped adapter error",
			err:  fmt.Errorf("request failed: %w", &AdapterError{Status: 500}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMockAdapter_ScriptedFailures(t *testing.T) {
	m := NewMockAdapter()
	m.FailNext("model-a", 2)

	for i := 0; i < 2; i++ {
		_, err := m.Generate(context.Background(), "model-a", "prompt")
		if err == nil {
			t.Fatalf("call %d succeeded, want scripted failure", i+1)
		}
		if !IsTransient(err) {
			t.Errorf("scripted failure not transient: %v", err)
		}
	}

	resp, err := m.Generate(context.Background(), "model-a", "prompt")
	if err != nil {
		t.Fatalf("Generate() after scripted failures error = %v", err)
	}
	if resp.Content == "" {
		t.Error("response content is empty")
	}

	if calls := m.Calls(); len(calls) != 3 {
		t.Errorf("calls = %v, want 3 recorded", calls)
	}
}

func TestMockAdapter_PermanentFailures(t *testing.T) {
	m := NewMockAdapter()
	m.FailNextPermanent("model-a", 1)

	_, err := m.Generate(context.Background(), "model-a", "prompt")
	if err == nil {
		t.Fatal("Generate() succeeded, want scripted permanent failure")
	}
	if IsTransient(err) {
		t.Errorf("permanent failure reported transient: %v", err)
	}

	if _, err := m.Generate(context.Background(), "model-a", "prompt"); err != nil {
		t.Fatalf("Generate() after scripted failure error = %v", err)
	}
}

func TestMockAdapter_CannedResponses(t *testing.T) {
	m := NewMockAdapterWithResponses(map[string]string{"ping": "pong"}, "fallback")

	resp, err := m.Generate(context.Background(), "model-a", "ping")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "pong" {
		t.Errorf("content = %q, want canned %q", resp.Content, "pong")
	}

	resp, err = m.Generate(context.Background(), "model-a", "other")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "fallback\nother" {
		t.Errorf("content = %q, want default prefix", resp.Content)
	}
}
