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

package storage

import "errors"

var (
	// ErrNotFound is returned when a requested chunk does not exist.
	ErrNotFound = errors.New("chunk not found")

	// ErrStorageClosed is returned when operating on a closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed is returned when a stored record cannot be
	// encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrInvalidQuery is returned for malformed similarity queries, such as
	// an empty vector or a non-positive limit.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrConflict is returned when a transaction loses to a concurrent
	// write on the same keys. The operation can be retried.
	ErrConflict = errors.New("concurrent write conflict")

	// ErrStorageFailed wraps backend failures that have no more specific
	// sentinel. Callers never see raw driver errors.
	ErrStorageFailed = errors.New("storage operation failed")
)
