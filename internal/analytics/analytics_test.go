package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"slotbot/internal/scheduling"
)

func testEvent() scheduling.EventRecord {
	start := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
	return scheduling.EventRecord{
		ID:         "stream",
		Name:       "Charity stream",
		Start:      start,
		End:        start.Add(2 * time.Hour),
		SlotLength: 30 * time.Minute,
		Signups: []scheduling.Signup{
			{User: 123, Slot: start},
			{User: 123, Slot: start.Add(time.Hour)},
			{User: 456, Slot: start},
			{User: 789, Slot: start.Add(10 * time.Minute)},
		},
	}
}

func TestAnalyzeEvent(t *testing.T) {
	stats := AnalyzeEvent(testEvent())

	if stats.TotalSignups != 4 {
		t.Errorf("Expected 4 signups, got %d", stats.TotalSignups)
	}
	if stats.UniqueUsers != 3 {
		t.Errorf("Expected 3 unique users, got %d", stats.UniqueUsers)
	}
	if stats.SlotsTotal != 5 {
		t.Errorf("Expected 5 slots, got %d", stats.SlotsTotal)
	}
	if stats.SlotsTaken != 2 {
		t.Errorf("Expected 2 slots taken, got %d", stats.SlotsTaken)
	}
	if stats.Unaligned != 1 {
		t.Errorf("Expected 1 unaligned signup, got %d", stats.Unaligned)
	}
	if stats.Slots[0].Signups != 2 || stats.Slots[2].Signups != 1 {
		t.Errorf("Unexpected slot counts: %+v", stats.Slots)
	}
	if stats.UserStats[123] != 2 {
		t.Errorf("Expected user 123 to hold 2 slots, got %d", stats.UserStats[123])
	}
}

func TestAnalyzeEvent_NoSignups(t *testing.T) {
	ev := testEvent()
	ev.Signups = nil
	stats := AnalyzeEvent(ev)
	if stats.TotalSignups != 0 || stats.SlotsTaken != 0 || stats.UniqueUsers != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if !strings.Contains(stats.GenerateReportSummary(), "slots taken: 0 of 5") {
		t.Errorf("Unexpected summary: %s", stats.GenerateReportSummary())
	}
}

func TestGenerateReportSummary(t *testing.T) {
	summary := AnalyzeEvent(testEvent()).GenerateReportSummary()

	for _, want := range []string{
		"Charity stream (stream)",
		"signups: 4 from 3 users",
		"slots taken: 2 of 5",
		"off-grid signups: 1",
		"- Jan 15, 2024 18:00 UTC: 2",
		"- Jan 15, 2024 19:00 UTC: 1",
		"user 123 holds 2 slots",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary should contain %q, got:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "user 456") {
		t.Errorf("Single-slot users should not be listed:\n%s", summary)
	}
}

func TestToJSON(t *testing.T) {
	out, err := AnalyzeEvent(testEvent()).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var parsed EventStats
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if parsed.EventID != "stream" || parsed.TotalSignups != 4 {
		t.Errorf("Unexpected round trip: %+v", parsed)
	}
}
