// Copyright 2025 Optim Finance
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the hosted AI services used by the
// knowledge base.
//
// The package defines interfaces for text embeddings and grounded answer
// generation. Core retrieval logic depends only on these abstractions, never
// on a concrete provider.
//
//   - Embedder: generates vector embeddings from text
//   - Answerer: generates an answer grounded on retrieved chunks
//   - AIProvider: aggregates the services for convenient initialization
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no external dependencies
//
// Production constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to prevent coupling to implementation details. Mock
// constructors return concrete types so tests can inject behavior and assert
// on call counts.
package ai
