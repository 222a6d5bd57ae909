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


package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates a file type with no registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailed indicates that reading or parsing the file failed.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyDocument indicates that extraction yielded no text.
	ErrEmptyDocument = errors.New("no text content extracted")
)
