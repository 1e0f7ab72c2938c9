// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

// Passage is one retrieved unit of grounding text plus its provenance.
// Produced by the retriever, consumed read-only by the answer composer.
type Passage struct {
	// Content is the chunk text.
	Content string `json:"content"`

	// Source identifies the chunk within its document,
	// e.g. "refund_policy.pdf_part_3".
	Source string `json:"source"`

	// ParentSource is the originating document, e.g. "refund_policy.pdf".
	ParentSource string `json:"parent_source"`

	// Page is the page the chunk was extracted from; 0 for non-paginated
	// formats such as plain text.
	Page int `json:"page,omitempty"`

	// Certainty is the similarity score reported by the vector store,
	// in [0, 1]. Present for ranking only; prompts never include it.
	Certainty float64 `json:"certainty,omitempty"`
}
