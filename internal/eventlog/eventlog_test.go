package eventlog

import (
	"fmt"
	"testing"
)

func TestAppendOrder(t *testing.T) {
	log := New(10)
	log.Info("first")
	log.Success("second")
	log.Error("third")

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "first" || entries[2].Message != "third" {
		t.Errorf("entries not in append order: %v", entries)
	}
	if entries[1].Severity != SeveritySuccess {
		t.Errorf("expected success severity, got %s", entries[1].Severity)
	}
}

func TestCapacityDropsOldest(t *testing.T) {
	log := New(5)
	for i := 0; i < 8; i++ {
		log.Info(fmt.Sprintf("entry %d", i))
	}

	entries := log.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 retained entries, got %d", len(entries))
	}
	if entries[0].Message != "entry 3" {
		t.Errorf("expected oldest retained entry to be 'entry 3', got %q", entries[0].Message)
	}
	if entries[4].Message != "entry 7" {
		t.Errorf("expected newest entry last, got %q", entries[4].Message)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	log := New(10)
	log.Info("original")

	snapshot := log.Entries()
	snapshot[0].Message = "mutated"

	if log.Entries()[0].Message != "original" {
		t.Error("mutating a snapshot changed the log")
	}
}
