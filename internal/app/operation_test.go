package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	started := time.Date(2024, 6, 15, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60))
	op := NewOperation("CreatePlaybook", started)

	if op.ID != "20240615T123045Z-createplaybook" {
		t.Errorf("ID = %q, want %q", op.ID, "20240615T123045Z-createplaybook")
	}
	if op.Name != "CreatePlaybook" {
		t.Errorf("Name = %q, want %q", op.Name, "CreatePlaybook")
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
	if got := op.Elapsed(started.Add(3 * time.Second)); got != 3*time.Second {
		t.Errorf("Elapsed() = %v, want 3s", got)
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("Sync", time.Now())

	if err := op.Fail(nil); err != nil {
		t.Fatalf("Fail(nil) = %v", err)
	}
	if op.Status != "success" {
		t.Errorf("Status after Fail(nil) = %q", op.Status)
	}

	boom := errors.New("boom")
	if err := op.Fail(boom); err != boom {
		t.Errorf("Fail() = %v, want the same error back", err)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want %q", op.Status, "error")
	}
}
