package engine

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidConfig is the sentinel matched by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a configuration problem detected before any work item
// is created.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) hold.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// State is the lifecycle position of a work item.
type State uint8

const (
	Pending State = iota
	Reading
	Computing
	Writing
	Done
	Failed
)

var stateNames = [...]string{"pending", "reading", "computing", "writing", "done", "failed"}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// TileError reports the failure of one work item. Stage is the state the
// item was in when it failed.
type TileError struct {
	Item   int
	Stage  State
	Window image.Rectangle
	Err    error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("work item %d (window %v) failed while %s: %v", e.Item, e.Window, e.Stage, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }
