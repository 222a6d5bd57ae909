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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/optimfinance/kbase/ai"
	"github.com/optimfinance/kbase/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Answerer implements ai.Answerer using OpenAI-compatible chat APIs.
type Answerer struct {
	client       llms.Model
	contactEmail string
	logger       *slog.Logger
}

// newAnswerer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerer(config *ai.Config) (*Answerer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.AnswerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Answerer{
		client:       client,
		contactEmail: config.ContactEmail,
		logger:       slog.Default().With("component", "openai-answerer"),
	}, nil
}

// NewAnswerer creates a new answerer using the provided configuration.
//
// Returns ai.Answerer interface to enforce abstraction.
func NewAnswerer(config *ai.Config) (ai.Answerer, error) {
	return newAnswerer(config)
}

// GenerateAnswer produces an answer grounded on the retrieved chunks.
// Model failures never reach the end user: the returned Answer carries a
// "contact support" fallback with Success=false and the cause is logged here.
func (a *Answerer) GenerateAnswer(ctx context.Context, query string, results []*core.ScoredChunk, intent string) (*ai.Answer, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnswerSystemPrompt(intent, a.contactEmail)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnswerUserPrompt(query, results)),
			},
		},
	}

	response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.3))
	if err != nil {
		a.logger.Error("answer generation failed", "intent", intent, "err", err)
		return a.fallbackAnswer(), nil
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Content) == "" {
		a.logger.Warn("answer model returned no content", "intent", intent)
		return a.fallbackAnswer(), nil
	}

	sources := make([]core.ID, 0, len(results))
	for _, result := range results {
		if result.Chunk != nil {
			sources = append(sources, result.Chunk.Id)
		}
	}

	return &ai.Answer{
		Response: strings.TrimSpace(response.Choices[0].Content),
		Sources:  sources,
		Success:  true,
	}, nil
}

func (a *Answerer) fallbackAnswer() *ai.Answer {
	return &ai.Answer{
		Response: fmt.Sprintf("Désolé, je ne peux pas répondre pour le moment. Veuillez contacter notre équipe à %s.", a.contactEmail),
		Success:  false,
	}
}
