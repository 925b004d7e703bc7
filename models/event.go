// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

// SyncEventKind is the kind of a sync lifecycle event.
type SyncEventKind int

const (
	// EventStarted is emitted first, exactly once per sync run.
	EventStarted SyncEventKind = iota + 1
	// EventProgress is emitted after each message is persisted.
	EventProgress
	// EventFinished terminates a successful run.
	EventFinished
	// EventFailed terminates a failed or cancelled run.
	EventFailed
)

func (k SyncEventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("SyncEventKind(%d)", int(k))
	}
}

// SyncEvent is a lifecycle notification for one folder sync.
//
// Per folder and run, events arrive as one Started, any number of Progress
// events with non-decreasing Completed <= Total, then exactly one of
// Finished or Failed.
type SyncEvent struct {
	Kind   SyncEventKind
	Folder string

	// Completed and Total are set on Progress events only.
	Completed int
	Total     int

	// Err is set on Failed events only.
	Err error
}

// IsTerminal reports whether no event can follow e in the same run.
func (e SyncEvent) IsTerminal() bool {
	return e.Kind == EventFinished || e.Kind == EventFailed
}

func (e SyncEvent) String() string {
	switch e.Kind {
	case EventProgress:
		return fmt.Sprintf("%s(%s, %d/%d)", e.Kind, e.Folder, e.Completed, e.Total)
	case EventFailed:
		return fmt.Sprintf("%s(%s, %v)", e.Kind, e.Folder, e.Err)
	default:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Folder)
	}
}

func StartedEvent(folder string) SyncEvent {
	return SyncEvent{Kind: EventStarted, Folder: folder}
}

func ProgressEvent(folder string, completed, total int) SyncEvent {
	return SyncEvent{Kind: EventProgress, Folder: folder, Completed: completed, Total: total}
}

func FinishedEvent(folder string) SyncEvent {
	return SyncEvent{Kind: EventFinished, Folder: folder}
}

func FailedEvent(folder string, err error) SyncEvent {
	return SyncEvent{Kind: EventFailed, Folder: folder, Err: err}
}
