// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered list of messages; a message's ID is its position
//   - Message: role, final answer, optional reasoning, search evidence, reveal state
//   - RevealState: pending, revealing-reasoning, revealing-answer, complete, aborted, errored
//   - SearchResult: one web-search hit (title, url, snippet, source, crawl date)
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("你好"))
//	idx := conv.Append(model.NewPlaceholder("plain"))
package model
