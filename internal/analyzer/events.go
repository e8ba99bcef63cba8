package analyzer

import (
	"context"
	"sync"
)

// EventType identifies the kind of a lifecycle event.
type EventType string

const (
	// EventProgress reports a stage transition or per-file progress.
	EventProgress EventType = "progress"
	// EventFileProcessed is emitted after each file has been read.
	EventFileProcessed EventType = "file-processed"
	// EventCompleted carries the final result payload. Terminal.
	EventCompleted EventType = "completed"
	// EventError carries a failure or ineligibility message. Terminal.
	EventError EventType = "error"
)

// Stage is the orchestrator state a progress event was emitted from. Stages
// only ever move forward within a run.
type Stage string

const (
	StageFetching  Stage = "fetching"
	StageParsing   Stage = "parsing"
	StageAnalyzing Stage = "analyzing"
	StageSaving    Stage = "saving"
	StageCompleted Stage = "completed"
)

// ClassEntry is one class token with its occurrence count.
type ClassEntry struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// Result is the payload of a completed event.
type Result struct {
	RepositoryURL       string         `json:"repository_url"`
	Branch              string         `json:"branch,omitempty"`
	TotalFiles          int            `json:"total_files"`
	TotalClassInstances int            `json:"total_class_instances"`
	UniqueClassCount    int            `json:"unique_class_count"`
	TopClasses          []ClassEntry   `json:"top_classes"`
	Counts              map[string]int `json:"counts"`
	FromCache           bool           `json:"from_cache"`
}

// Event is one entry in the per-run lifecycle stream.
type Event struct {
	Type           EventType `json:"type"`
	RunID          string    `json:"run_id"`
	Stage          Stage     `json:"stage,omitempty"`
	File           string    `json:"file,omitempty"`
	ProcessedFiles int       `json:"processed_files,omitempty"`
	TotalFiles     int       `json:"total_files,omitempty"`
	Message        string    `json:"message,omitempty"`
	Result         *Result   `json:"result,omitempty"`
}

// eventBufferSize bounds the per-run channel so a slow observer applies
// backpressure instead of growing memory.
const eventBufferSize = 32

// emitter delivers one run's events to a single observer. Delivery is
// best-effort: once the observer's context is cancelled, remaining events are
// dropped while the run itself keeps going. The channel is closed exactly
// once, after the first terminal event.
type emitter struct {
	runID     string
	ch        chan Event
	ctx       context.Context
	closeOnce sync.Once
	done      bool
}

func newEmitter(ctx context.Context, runID string) *emitter {
	return &emitter{
		runID: runID,
		ch:    make(chan Event, eventBufferSize),
		ctx:   ctx,
	}
}

// events returns the observer side of the channel.
func (e *emitter) events() <-chan Event { return e.ch }

func (e *emitter) send(ev Event) {
	if e.done {
		return
	}
	ev.RunID = e.runID
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emitter) progress(stage Stage, file string, processed, total int) {
	e.send(Event{
		Type:           EventProgress,
		Stage:          stage,
		File:           file,
		ProcessedFiles: processed,
		TotalFiles:     total,
	})
}

func (e *emitter) fileProcessed(file string, processed, total int) {
	e.send(Event{
		Type:           EventFileProcessed,
		File:           file,
		ProcessedFiles: processed,
		TotalFiles:     total,
	})
}

// completed emits the terminal success event.
func (e *emitter) completed(result *Result) {
	e.send(Event{Type: EventCompleted, Stage: StageCompleted, Result: result})
	e.done = true
}

// fail emits the terminal error event.
func (e *emitter) fail(message string) {
	e.send(Event{Type: EventError, Message: message})
	e.done = true
}

// close closes the channel. Safe to call more than once.
func (e *emitter) close() {
	e.closeOnce.Do(func() {
		e.done = true
		close(e.ch)
	})
}
