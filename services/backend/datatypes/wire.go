// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// DefaultSessionID is the session every caller who omits session_id
// shares. The collision is deliberate: callers needing isolation must
// always supply their own session_id.
const DefaultSessionID = "default_session"

// MaxInputBytes is the maximum size of a single chat input. Checked in
// bytes, not runes, to bound memory per message.
const MaxInputBytes = 32 * 1024

// wireValidate is the validator instance for wire datatypes.
var wireValidate *validator.Validate

func init() {
	wireValidate = validator.New()
	_ = wireValidate.RegisterValidation("maxbytes", validateInputBytes)
}

func validateInputBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxInputBytes
}

// ChatRequest is one inbound websocket message.
//
// # Fields
//
//   - SessionId: Optional. Opaque conversation key. Empty means
//     DefaultSessionID.
//   - Input: Required. The user's utterance.
//
// # Validation
//
//   - Input: required, at most MaxInputBytes bytes
type ChatRequest struct {
	SessionId string `json:"session_id"`
	Input     string `json:"input" validate:"required,maxbytes"`
}

// Validate checks the request after JSON decoding. A nil return means
// the message is well-formed per the wire contract.
func (r *ChatRequest) Validate() error {
	return wireValidate.Struct(r)
}

// EnsureSessionId applies the default-session rule and returns the
// effective session id.
func (r *ChatRequest) EnsureSessionId() string {
	if r.SessionId == "" {
		r.SessionId = DefaultSessionID
	}
	return r.SessionId
}

// ChatResponse is one outbound websocket message. Exactly one of Answer
// or Error appears on the wire, even when the answer is empty text.
type ChatResponse struct {
	Answer string `json:"-"`
	Error  string `json:"-"`
}

// AnswerResponse builds the success variant.
func AnswerResponse(answer string) ChatResponse {
	return ChatResponse{Answer: answer}
}

// ErrorResponse builds the failure variant.
func ErrorResponse(err error) ChatResponse {
	return ChatResponse{Error: err.Error()}
}

// MarshalJSON emits exactly one of the two variants. An empty Error
// means success; the answer is sent even if it is the empty string.
func (r ChatResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	return json.Marshal(map[string]string{"answer": r.Answer})
}

// UnmarshalJSON accepts either variant; used by the terminal client.
func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Answer *string `json:"answer"`
		Error  *string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Answer != nil {
		r.Answer = *raw.Answer
	}
	if raw.Error != nil {
		r.Error = *raw.Error
	}
	return nil
}
