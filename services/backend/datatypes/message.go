// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package datatypes provides data structures for the backend service.
//
// This file contains the conversational types shared across the engine,
// the session store and the LLM clients. Wire types for the websocket
// protocol live in wire.go; retrieval types in passage.go.
package datatypes

// Message roles. Histories use the "human" spelling; LLM clients map it
// to whatever their backend expects (Ollama and OpenAI both use "user").
const (
	RoleSystem    = "system"
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// Message is one role-tagged utterance. Messages are immutable once
// created; histories only ever append new ones.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage returns a human-role message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AssistantMessage returns an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
