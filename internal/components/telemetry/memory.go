package telemetry

import (
	"slices"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelCount
	LevelWarning
	LevelBroken
)

// Report is a single call recorded by MemoryAPI.
type Report struct {
	Level  Level
	ID     string
	Params []any
	Count  int64
}

// MemoryAPI records every report, it is meant for asserting on telemetry in tests.
type MemoryAPI struct {
	mutex   *sync.Mutex
	reports *[]Report
}

func NewMemoryAPI() MemoryAPI {
	return MemoryAPI{
		mutex:   &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (m MemoryAPI) record(r Report) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	*m.reports = append(*m.reports, r)
}

func (m MemoryAPI) ReportBroken(id string, params ...any) {
	m.record(Report{Level: LevelBroken, ID: id, Params: params})
}

func (m MemoryAPI) ReportWarning(id string, params ...any) {
	m.record(Report{Level: LevelWarning, ID: id, Params: params})
}

func (m MemoryAPI) ReportDebug(message string, params ...any) {
	m.record(Report{Level: LevelDebug, ID: message, Params: params})
}

func (m MemoryAPI) ReportCount(id string, count int64) {
	m.record(Report{Level: LevelCount, ID: id, Count: count})
}

// Reports returns a copy of the reports recorded so far.
func (m MemoryAPI) Reports() []Report {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(*m.reports)
}

// Filter returns the recorded reports of the given level.
func (m MemoryAPI) Filter(level Level) []Report {
	var out []Report
	for _, r := range m.Reports() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}
