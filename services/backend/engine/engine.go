// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package engine runs the conversational answer pipeline: rewrite the
// question against the history, retrieve passages, compose the answer,
// then commit the turn.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/backend/observability"
	"github.com/nydas-ai/nydasbot/services/backend/session"
)

var tracer = otel.Tracer("nydasbot.backend.engine")

// PassageRetriever is the slice of the retrieval layer the engine needs.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string) ([]datatypes.Passage, error)
}

// ConversationEngine answers one user turn at a time per session.
//
// # Thread Safety
//
// Safe for concurrent use. Turns against the same session serialize on
// the session's turn lock; turns against different sessions proceed in
// parallel.
type ConversationEngine struct {
	store     *session.Store
	rewriter  *QueryRewriter
	retriever PassageRetriever
	composer  *AnswerComposer
	metrics   *observability.ChatMetrics
}

// NewConversationEngine wires the pipeline. metrics may be nil in tests.
func NewConversationEngine(
	store *session.Store,
	rewriter *QueryRewriter,
	retriever PassageRetriever,
	composer *AnswerComposer,
	metrics *observability.ChatMetrics,
) *ConversationEngine {
	return &ConversationEngine{
		store:     store,
		rewriter:  rewriter,
		retriever: retriever,
		composer:  composer,
		metrics:   metrics,
	}
}

// Store exposes the session store for the admin handlers.
func (e *ConversationEngine) Store() *session.Store { return e.store }

// Answer processes one turn for the session and returns the answer.
//
// The history snapshot taken under the turn lock feeds both the rewrite
// and the compose prompts. The (human, assistant) pair is appended only
// after compose succeeds; on any failure the history is left untouched
// and the caller gets an *EngineError naming the failed stage.
func (e *ConversationEngine) Answer(ctx context.Context, sessionID, input string) (string, error) {
	ctx, span := tracer.Start(ctx, "ConversationEngine.Answer",
		oteltrace.WithAttributes(attribute.String("chat.session_id", sessionID)))
	defer span.End()

	start := time.Now()
	answer, err := e.answer(ctx, sessionID, input)
	if e.metrics != nil {
		e.metrics.RecordTurn(time.Since(start).Seconds(), err == nil)
		e.metrics.OpenSessions.Set(float64(e.store.Len()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return answer, nil
}

func (e *ConversationEngine) answer(ctx context.Context, sessionID, input string) (string, error) {
	s := e.store.GetOrCreate(sessionID)
	s.Lock()
	defer s.Unlock()

	history := s.History()
	slog.Debug("Processing turn", "session_id", sessionID, "history_len", len(history))

	rewritten, err := e.rewriter.Rewrite(ctx, history, input)
	if err != nil {
		slog.Error("Query rewrite failed", "session_id", sessionID, "error", err)
		return "", &EngineError{Stage: StageRewrite, Session: sessionID, Err: err}
	}

	passages, err := e.retriever.Retrieve(ctx, rewritten)
	if err != nil {
		slog.Error("Passage retrieval failed", "session_id", sessionID, "error", err)
		return "", &EngineError{Stage: StageRetrieve, Session: sessionID, Err: err}
	}

	answer, err := e.composer.Compose(ctx, history, input, passages)
	if err != nil {
		slog.Error("Answer composition failed", "session_id", sessionID, "error", err)
		return "", &EngineError{Stage: StageCompose, Session: sessionID, Err: err}
	}

	s.AppendTurn(input, answer)
	slog.Info("Turn complete", "session_id", sessionID, "passages", len(passages))
	return answer, nil
}
