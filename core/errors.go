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


package core

import "errors"

var (
	// ErrInvalidChunk indicates that a chunk failed domain validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates that a chunk has no content.
	ErrEmptyContent = errors.New("empty content")

	// ErrEmptyFilename indicates that a chunk has no source filename.
	ErrEmptyFilename = errors.New("empty filename")

	// ErrNegativeChunkIndex indicates a chunk index below zero.
	ErrNegativeChunkIndex = errors.New("negative chunk index")

	// ErrInvalidSearchMode indicates an unrecognized search mode string.
	ErrInvalidSearchMode = errors.New("invalid search mode")
)
