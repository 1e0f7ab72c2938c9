// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package engine

import "fmt"

// Pipeline stages reported in EngineError.
const (
	StageRewrite  = "rewrite"
	StageRetrieve = "retrieve"
	StageCompose  = "compose"
)

// EngineError wraps a failure from one stage of the answer pipeline.
// Handlers serialize its message into the error variant of the wire
// response; the session history is never mutated when one is returned.
type EngineError struct {
	Stage   string
	Session string
	Err     error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error in %s stage (session %s): %v", e.Stage, e.Session, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsEngineError checks if an error is an *EngineError.
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}
