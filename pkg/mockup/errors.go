package mockup

import (
	"errors"
	"fmt"
)

// Kind classifies fatal pipeline failures.
type Kind string

const (
	KindParse            Kind = "parse"              // malformed design document
	KindTemplateNotFound Kind = "template_not_found" // no template, or its base image is missing
	KindComposite        Kind = "composite"          // base or design image unusable
	KindIO               Kind = "io"                 // writing or publishing the result
	KindTimeout          Kind = "timeout"            // deadline exceeded or cancelled
)

// Stage is a step of one generation run.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageTemplateLookup Stage = "template_lookup"
	StageRasterize      Stage = "rasterize"
	StageTransform      Stage = "transform"
	StageComposite      Stage = "composite"
	StageSaved          Stage = "saved"
)

// Error is the single structured failure returned by the pipeline. Stage is
// the step that was running when it failed.
type Error struct {
	Kind  Kind
	Stage Stage
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a pipeline error, or "" for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StageOf returns the stage a pipeline error happened in, or "" for any other
// error.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

func newError(kind Kind, stage Stage, msg string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: err}
}
