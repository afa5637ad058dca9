package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"slotbot/internal/scheduling"
)

// EventStats summarises the signups of one event.
type EventStats struct {
	EventID      string        `json:"event_id"`
	Name         string        `json:"name"`
	TotalSignups int           `json:"total_signups"`
	UniqueUsers  int           `json:"unique_users"`
	SlotsTotal   int           `json:"slots_total"`
	SlotsTaken   int           `json:"slots_taken"`
	Slots        []SlotStats   `json:"slots"`
	Unaligned    int           `json:"unaligned"`
	UserStats    map[int64]int `json:"user_stats"`
}

// SlotStats counts signups for one generated slot start.
type SlotStats struct {
	Index   int    `json:"index"`
	Start   string `json:"start"`
	Signups int    `json:"signups"`
}

// AnalyzeEvent counts signups per generated slot and per user. Signups whose
// start matches no generated slot are counted as unaligned.
func AnalyzeEvent(ev scheduling.EventRecord) *EventStats {
	stats := &EventStats{
		EventID:   ev.ID,
		Name:      ev.Name,
		UserStats: make(map[int64]int),
	}

	index := make(map[int64]int)
	for slot := range scheduling.GenerateSlots(ev.Start, ev.End, ev.SlotLength) {
		index[slot.UnixNano()] = len(stats.Slots)
		stats.Slots = append(stats.Slots, SlotStats{Index: len(stats.Slots), Start: scheduling.FormatShort(slot)})
	}
	stats.SlotsTotal = len(stats.Slots)

	for _, s := range ev.Signups {
		stats.TotalSignups++
		stats.UserStats[int64(s.User)]++
		i, ok := index[s.Slot.UnixNano()]
		if !ok {
			stats.Unaligned++
			continue
		}
		if stats.Slots[i].Signups == 0 {
			stats.SlotsTaken++
		}
		stats.Slots[i].Signups++
	}
	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as a chat message.
func (es *EventStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", es.Name, es.EventID)
	fmt.Fprintf(&b, "signups: %d from %d users\n", es.TotalSignups, es.UniqueUsers)
	fmt.Fprintf(&b, "slots taken: %d of %d\n", es.SlotsTaken, es.SlotsTotal)
	if es.Unaligned > 0 {
		fmt.Fprintf(&b, "off-grid signups: %d\n", es.Unaligned)
	}
	for _, s := range es.Slots {
		if s.Signups > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", s.Start, s.Signups)
		}
	}

	users := make([]int64, 0, len(es.UserStats))
	for id := range es.UserStats {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	for _, id := range users {
		if n := es.UserStats[id]; n > 1 {
			fmt.Fprintf(&b, "user %d holds %d slots\n", id, n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToJSON serialises the stats for detailed inspection.
func (es *EventStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(es, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
