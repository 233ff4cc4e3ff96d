// Package aitest provides deterministic generators for tests.
package aitest

import (
	"context"
	"sync"

	"solo-persona/backend/ai"
)

// TextFunc answers a text request.
type TextFunc func(ctx context.Context, req ai.TextRequest) (string, error)

// FakeText is a TextGenerator backed by a function. It records every request.
type FakeText struct {
	mu       sync.Mutex
	fn       TextFunc
	requests []ai.TextRequest
}

// NewFakeText creates a fake text generator.
func NewFakeText(fn TextFunc) *FakeText {
	return &FakeText{fn: fn}
}

// Respond always answers with body.
func Respond(body string) *FakeText {
	return NewFakeText(func(context.Context, ai.TextRequest) (string, error) { return body, nil })
}

// Fail always answers with err.
func Fail(err error) *FakeText {
	return NewFakeText(func(context.Context, ai.TextRequest) (string, error) { return "", err })
}

func (f *FakeText) GenerateJSON(ctx context.Context, req ai.TextRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (f *FakeText) Requests() []ai.TextRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.TextRequest(nil), f.requests...)
}

// Calls returns the number of requests seen.
func (f *FakeText) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// ImageFunc answers an image request.
type ImageFunc func(ctx context.Context, req ai.ImageRequest) (*ai.InlineImage, error)

// FakeImage is an ImageGenerator backed by a function.
type FakeImage struct {
	mu       sync.Mutex
	fn       ImageFunc
	requests []ai.ImageRequest
}

// NewFakeImage creates a fake image generator.
func NewFakeImage(fn ImageFunc) *FakeImage {
	return &FakeImage{fn: fn}
}

// Image always answers with a PNG holding data.
func Image(data ...byte) *FakeImage {
	return NewFakeImage(func(context.Context, ai.ImageRequest) (*ai.InlineImage, error) {
		return &ai.InlineImage{MIMEType: "image/png", Data: data}, nil
	})
}

func (f *FakeImage) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.InlineImage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (f *FakeImage) Requests() []ai.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.ImageRequest(nil), f.requests...)
}

// Calls returns the number of requests seen.
func (f *FakeImage) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// ProfileJSON is a complete, valid profile document.
const ProfileJSON = `{
  "name": "직진하는 영숙",
  "baseName": "영숙",
  "catchphrase": "마음에 들면 바로 간다",
  "description": "첫날부터 직진하는 솔로나라의 불도저.",
  "famousLine": "저 영수님이랑 얘기 좀 할게요",
  "strengths": ["추진력", "솔직함", "결단력"],
  "weaknesses": ["성급함", "질투", "고집"],
  "visualDescription": "A confident Korean woman in her 30s with a sharp bob haircut",
  "strategy": "한 사람에게 집중하세요.",
  "idealPartner": "차분한 영철",
  "successRate": 72,
  "idealPartnerVisualDescription": "A calm Korean man in his 30s wearing a cardigan"
}`

// MatchJSON is a complete, valid match document.
const MatchJSON = `{"matchScore": 81, "scenario": "둘은 시장에서 떡볶이를 나눠 먹었다.", "verdict": "결혼각"}`
