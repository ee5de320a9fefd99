package datarecording

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/xid"

	"github.com/sarchlab/evtsched/event"
)

// Table names used by ScheduleRecorder.
const (
	EventTable        = "schedule_event"
	SectionTable      = "schedule_section"
	SectionStateTable = "schedule_section_state"
)

// EventEntry is one row of EventTable. Events and durations share the table
// and are told apart by Kind.
type EventEntry struct {
	Snapshot       string
	ID             string
	Name           string
	Kind           string
	Parameter      string
	ComponentIndex int
	State          string
	Time           float64
	StoredTime     float64
	Independent    bool
	Dependencies   string
	Factors        string
}

// SectionEntry is one row of SectionTable.
type SectionEntry struct {
	Snapshot  string
	Idx       int
	StartTime float64
	EndTime   float64
}

// SectionStateEntry is one row of SectionStateTable. Coefficients holds a JSON
// array.
type SectionStateEntry struct {
	Snapshot     string
	Section      int
	Parameter    string
	Coefficients string
}

// ScheduleRecorder writes snapshots of a handler into a DataRecorder. Every
// snapshot gets its own identifier so several can share one database.
type ScheduleRecorder struct {
	recorder      DataRecorder
	tablesCreated bool
}

// NewScheduleRecorder creates a ScheduleRecorder.
func NewScheduleRecorder(r DataRecorder) *ScheduleRecorder {
	return &ScheduleRecorder{recorder: r}
}

func (r *ScheduleRecorder) createTables() error {
	if r.tablesCreated {
		return nil
	}

	if err := r.recorder.CreateTable(EventTable, EventEntry{}); err != nil {
		return err
	}

	if err := r.recorder.CreateTable(SectionTable, SectionEntry{}); err != nil {
		return err
	}

	if err := r.recorder.CreateTable(SectionStateTable, SectionStateEntry{}); err != nil {
		return err
	}

	r.tablesCreated = true

	return nil
}

// RecordSchedule writes the events, durations, sections and section states of
// h and flushes. It returns the snapshot identifier.
func (r *ScheduleRecorder) RecordSchedule(h *event.Handler) (string, error) {
	if err := r.createTables(); err != nil {
		return "", err
	}

	states, err := h.SectionStates()
	if err != nil {
		return "", fmt.Errorf("datarecording: %w", err)
	}

	snapshot := xid.New().String()

	for _, e := range h.Events() {
		if err := r.insert(EventTable, newEventEntry(snapshot, "event", e)); err != nil {
			return "", err
		}
	}

	for _, d := range h.Durations() {
		if err := r.insert(EventTable, newEventEntry(snapshot, "duration", d)); err != nil {
			return "", err
		}
	}

	if err := r.recordSections(snapshot, states); err != nil {
		return "", err
	}

	if err := r.recorder.Flush(); err != nil {
		return "", err
	}

	return snapshot, nil
}

func (r *ScheduleRecorder) recordSections(snapshot string, states []event.SectionState) error {
	for i, s := range states {
		entry := SectionEntry{Snapshot: snapshot, Idx: i, StartTime: s.Start, EndTime: s.End}
		if err := r.insert(SectionTable, entry); err != nil {
			return err
		}

		paths := make([]string, 0, len(s.Coefficients))
		for p := range s.Coefficients {
			paths = append(paths, p)
		}
		slices.Sort(paths)

		for _, p := range paths {
			c, err := json.Marshal(s.Coefficients[p])
			if err != nil {
				return fmt.Errorf("datarecording: %w", err)
			}

			stateEntry := SectionStateEntry{
				Snapshot:     snapshot,
				Section:      i,
				Parameter:    p,
				Coefficients: string(c),
			}
			if err := r.insert(SectionStateTable, stateEntry); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *ScheduleRecorder) insert(table string, entry any) error {
	return r.recorder.InsertData(table, entry)
}

type recordable interface {
	event.Scheduled
	State() any
	ParameterPath() string
	ComponentIndex() int
	StoredTime() float64
}

func newEventEntry(snapshot, kind string, s recordable) EventEntry {
	names := make([]string, 0, len(s.Dependencies()))
	for _, dep := range s.Dependencies() {
		names = append(names, dep.Name())
	}

	state, _ := json.Marshal(s.State())
	factors, _ := json.Marshal(s.Factors())

	return EventEntry{
		Snapshot:       snapshot,
		ID:             s.ID(),
		Name:           s.Name(),
		Kind:           kind,
		Parameter:      s.ParameterPath(),
		ComponentIndex: s.ComponentIndex(),
		State:          string(state),
		Time:           s.Time(),
		StoredTime:     s.StoredTime(),
		Independent:    s.IsIndependent(),
		Dependencies:   strings.Join(names, ","),
		Factors:        string(factors),
	}
}
