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

// Package search provides semantic, keyword, and hybrid retrieval over the
// knowledge base.
//
// The Searcher type implements three search channels:
//   - Semantic search using vector embeddings with a similarity threshold
//   - Keyword search re-ranking semantic candidates by term overlap
//   - Hybrid search blending both channels with a configurable weight
//
// Every query is also classified into a coarse intent (pricing, comparison,
// contact, definition, process, requirements, or general) that downstream
// answer generation uses to shape its response.
package search
