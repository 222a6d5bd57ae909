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

// Package storage provides the storage abstraction layer for kbase.
//
// This package defines the ChunkRepository interface that decouples the
// storage implementation from ingestion and search logic, so different
// backends (BadgerDB, in-memory, etc.) can be used interchangeably.
//
// Public constructors in backend packages return the ChunkRepository
// interface rather than concrete types:
//
//	repo, err := badger.NewRepository("/path/to/db")  // returns storage.ChunkRepository
//
// This keeps consumers decoupled from BadgerDB specifics and lets tests
// swap in the in-memory variant without modification:
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
