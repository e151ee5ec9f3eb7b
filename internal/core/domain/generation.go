package domain

import (
	"encoding/json"
	"fmt"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// ParseTaskStatus rejects anything outside the three known states.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskStatusPending, TaskStatusSucceeded, TaskStatusFailed:
		return st, nil
	default:
		return "", &Error{Kind: ErrInvariant, Op: "decode status", Message: fmt.Sprintf("unrecognized task status: %q", s)}
	}
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return &Error{Kind: ErrInvariant, Op: "decode status", Message: fmt.Sprintf("task status is not a string: %s", b)}
	}
	st, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ObjectProps is the natural-language description of the object to build.
type ObjectProps struct {
	Name        string `json:"object_name"`
	Description string `json:"object_description"`
}

// GenerationTask is the local handle to one submitted generation.
type GenerationTask struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
}

func (t *GenerationTask) Props() ObjectProps {
	return ObjectProps{Name: t.Name, Description: t.Description}
}

type VersionEntry struct {
	Version string     `json:"version"`
	Status  TaskStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
}

// ObjectState is the remote object's aggregate view across versions.
type ObjectState struct {
	Tasks []VersionEntry `json:"tasks"`
}

// Find returns the entry for version, or false when the state has none.
func (s *ObjectState) Find(version string) (VersionEntry, bool) {
	for _, e := range s.Tasks {
		if e.Version == version {
			return e, true
		}
	}
	return VersionEntry{}, false
}

// ResolveVersion checks that version reached a success outcome. It is only
// meaningful after the task has been observed terminal, so a non-final
// status here is a protocol inconsistency rather than something to wait on.
func (s *ObjectState) ResolveVersion(version string) (VersionEntry, error) {
	const op = "resolve version"

	e, ok := s.Find(version)
	if !ok {
		return VersionEntry{}, &Error{Kind: ErrNotFound, Op: op, Message: "version not found in state: " + version}
	}
	switch e.Status {
	case TaskStatusSucceeded:
		return e, nil
	case TaskStatusFailed:
		return e, NewError(ErrGenerationFailed, op, 0, e.Error, "generation failed")
	default:
		return e, &Error{Kind: ErrInvariant, Op: op, Message: fmt.Sprintf("version status is not final: %q", e.Status)}
	}
}

// Artifact is the binary content produced by a succeeded version.
type Artifact struct {
	TaskID      string
	Version     string
	ContentType string
	Data        []byte
}
