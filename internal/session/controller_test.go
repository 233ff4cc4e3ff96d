package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"solo-persona/backend/ai"
	"solo-persona/backend/ai/aitest"
	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/prompts"
	"solo-persona/backend/internal/quiz"
	"solo-persona/backend/internal/service"
	"solo-persona/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// genai links in opencensus, whose view worker starts in init
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// testPool has exactly seven questions whose "A" options sum to
// {20, 15, 10, 5, 0} whatever order they are drawn in.
func testPool() []models.Question {
	deltas := [][models.TraitCount]int{
		{3, 2, 1, 1, 0}, {3, 2, 1, 1, 0}, {3, 2, 1, 1, 0}, {3, 2, 1, 1, 0},
		{3, 2, 1, 1, 0}, {3, 3, 3, 0, 0}, {2, 2, 2, 0, 0},
	}
	pool := make([]models.Question, len(deltas))
	for i, d := range deltas {
		pool[i] = models.Question{
			ID:   i + 1,
			Text: fmt.Sprintf("question %d", i+1),
			Options: []models.Option{
				{ID: "A", Text: "a", Traits: d},
				{ID: "B", Text: "b", Traits: [models.TraitCount]int{0, 0, 0, 0, 10}},
			},
		}
	}
	return pool
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) notify(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

type harness struct {
	ctrl     *Controller
	profiles *aitest.FakeText
	matches  *aitest.FakeText
	images   *aitest.FakeImage
	rec      *recorder
}

func newHarness(t *testing.T, profiles, matches *aitest.FakeText, images *aitest.FakeImage) *harness {
	t.Helper()
	content, err := prompts.DefaultContent()
	require.NoError(t, err)
	b, err := prompts.NewBuilder(content)
	require.NoError(t, err)

	cfg := service.DefaultConfig()
	rec := &recorder{}
	ctrl := NewController("sess-1", Dependencies{
		Profiles:            service.NewProfileService(profiles, b, cfg),
		Portraits:           service.NewPortraitService(images, b, cfg),
		Matches:             service.NewMatchService(matches, b, cfg),
		Pool:                testPool(),
		QuestionsPerSession: 7,
		Notify:              rec.notify,
		Logger:              logger.Discard(),
		NewRand:             func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	})
	t.Cleanup(ctrl.Close)
	return &harness{ctrl: ctrl, profiles: profiles, matches: matches, images: images, rec: rec}
}

func gated(release <-chan struct{}, body string) *aitest.FakeText {
	return aitest.NewFakeText(func(ctx context.Context, _ ai.TextRequest) (string, error) {
		select {
		case <-release:
			return body, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

// answerAll plays the quiz choosing option on every question.
func answerAll(t *testing.T, c *Controller, option string) Snapshot {
	t.Helper()
	var last Snapshot
	for i := 0; i < 7; i++ {
		q, p, err := c.CurrentQuestion()
		require.NoError(t, err)
		assert.Equal(t, i, p.Index)
		assert.Equal(t, 7, p.Total)

		last, err = c.Answer(q.ID, option)
		require.NoError(t, err)
	}
	return last
}

func toResult(t *testing.T, h *harness, g models.Gender) {
	t.Helper()
	_, err := h.ctrl.Start()
	require.NoError(t, err)
	_, err = h.ctrl.SelectGender(g)
	require.NoError(t, err)
	answerAll(t, h.ctrl, "A")
	h.ctrl.Wait()
	require.Equal(t, StateResult, h.ctrl.Snapshot().State)
}

func TestEndToEndFemale(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, gated(release, aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(0xFF, 0xD8))

	snap, err := h.ctrl.Start()
	require.NoError(t, err)
	assert.Equal(t, StateGenderSelect, snap.State)

	snap, err = h.ctrl.SelectGender(models.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, StateQuiz, snap.State)
	assert.Equal(t, models.GenderFemale, snap.Gender)

	snap = answerAll(t, h.ctrl, "A")
	assert.Equal(t, StateAnalyzing, snap.State)
	want := models.UserTraits{Aggressiveness: 20, Empathy: 15, Realism: 10, Humor: 5, Style: 0}
	assert.Equal(t, want, snap.Traits)
	assert.Nil(t, snap.Profile)

	close(release)
	h.ctrl.Wait()

	final := h.ctrl.Snapshot()
	assert.Equal(t, StateResult, final.State)
	require.NotNil(t, final.Profile)
	p := final.Profile
	for name, v := range map[string]string{
		"name": p.Name, "baseName": p.BaseName, "catchphrase": p.Catchphrase,
		"description": p.Description, "famousLine": p.FamousLine,
		"visualDescription": p.VisualDescription, "strategy": p.Strategy,
		"idealPartner": p.IdealPartner, "idealPartnerVisualDescription": p.IdealPartnerVisualDescription,
	} {
		assert.NotEmpty(t, v, name)
	}
	assert.NotEmpty(t, p.Strengths)
	assert.NotEmpty(t, p.Weaknesses)
	assert.Equal(t, "data:image/png;base64,/9g=", final.SelfPortrait)
	assert.Equal(t, "data:image/png;base64,/9g=", final.PartnerPortrait)
	assert.False(t, final.GeneratingImages)

	reqs := h.profiles.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Aggressiveness: 20/50")
	assert.Contains(t, reqs[0].Prompt, "Style: 0/50")

	imgs := h.images.Requests()
	require.Len(t, imgs, 2)
	var subjects []string
	for _, r := range imgs {
		subjects = append(subjects, r.Prompt)
	}
	assert.Contains(t, subjects[0]+subjects[1], "Korean woman")
	assert.Contains(t, subjects[0]+subjects[1], "Korean man")
}

func TestProfileArrivesBeforePortraits(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	toResult(t, h, models.GenderMale)

	var firstResult, firstPortrait = -1, -1
	for i, s := range h.rec.all() {
		if s.State == StateResult && firstResult < 0 {
			firstResult = i
			assert.True(t, s.GeneratingImages)
			assert.Empty(t, s.SelfPortrait)
			assert.Empty(t, s.PartnerPortrait)
		}
		if (s.SelfPortrait != "" || s.PartnerPortrait != "") && firstPortrait < 0 {
			firstPortrait = i
		}
	}
	require.GreaterOrEqual(t, firstResult, 0)
	assert.Greater(t, firstPortrait, firstResult)

	versions := h.rec.all()
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i].Version, versions[i-1].Version)
	}
}

func TestPortraitsRunConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	images := aitest.NewFakeImage(func(ctx context.Context, _ ai.ImageRequest) (*ai.InlineImage, error) {
		// Both calls must be in flight before either can finish.
		wg.Done()
		wg.Wait()
		return &ai.InlineImage{MIMEType: "image/png", Data: []byte{1}}, nil
	})
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), images)

	toResult(t, h, models.GenderFemale)

	snap := h.ctrl.Snapshot()
	assert.NotEmpty(t, snap.SelfPortrait)
	assert.NotEmpty(t, snap.PartnerPortrait)
}

func TestOnePortraitFailingLeavesOtherSlot(t *testing.T) {
	images := aitest.NewFakeImage(func(_ context.Context, req ai.ImageRequest) (*ai.InlineImage, error) {
		if strings.Contains(req.Prompt, "Korean man") {
			return nil, ai.ErrNoImage
		}
		return &ai.InlineImage{MIMEType: "image/png", Data: []byte{1}}, nil
	})
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), images)

	toResult(t, h, models.GenderFemale)

	snap := h.ctrl.Snapshot()
	assert.NotEmpty(t, snap.SelfPortrait)
	assert.Empty(t, snap.PartnerPortrait)
	assert.False(t, snap.GeneratingImages)

	_, ok := h.ctrl.Portrait(SlotPartner)
	assert.False(t, ok)
	p, ok := h.ctrl.Portrait(SlotSelf)
	assert.True(t, ok)
	assert.Equal(t, "image/png", p.MimeType)
}

func TestFailingProfileStillReachesResult(t *testing.T) {
	h := newHarness(t, aitest.Fail(errors.New("503")), aitest.Respond(aitest.MatchJSON), aitest.Image(1))

	toResult(t, h, models.GenderMale)

	snap := h.ctrl.Snapshot()
	require.NotNil(t, snap.Profile)
	assert.Equal(t, service.FallbackProfile(models.GenderMale), *snap.Profile)
	assert.Equal(t, 0, snap.Profile.SuccessRate)
}

func TestRegenerateReplacesEverything(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	second := make(chan struct{})
	profiles := aitest.NewFakeText(func(ctx context.Context, _ ai.TextRequest) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return aitest.ProfileJSON, nil
		}
		select {
		case <-second:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return `{"name":"재분석 영자","baseName":"영자","catchphrase":"c","description":"d","famousLine":"f",
			"strengths":["s"],"weaknesses":["w"],"visualDescription":"v2","strategy":"st","idealPartner":"ip",
			"successRate":10,"idealPartnerVisualDescription":"pv2"}`, nil
	})
	images := aitest.NewFakeImage(func(_ context.Context, req ai.ImageRequest) (*ai.InlineImage, error) {
		if strings.Contains(req.Prompt, "v2") {
			return &ai.InlineImage{MIMEType: "image/webp", Data: []byte{2}}, nil
		}
		return &ai.InlineImage{MIMEType: "image/png", Data: []byte{1}}, nil
	})
	h := newHarness(t, profiles, aitest.Respond(aitest.MatchJSON), images)
	toResult(t, h, models.GenderFemale)

	before := h.ctrl.Snapshot()
	assert.Equal(t, "직진하는 영숙", before.Profile.Name)
	assert.Equal(t, "data:image/png;base64,AQ==", before.SelfPortrait)

	snap, err := h.ctrl.Regenerate()
	require.NoError(t, err)
	assert.True(t, snap.Regenerating)
	assert.Equal(t, StateResult, snap.State)

	_, err = h.ctrl.Regenerate()
	assert.ErrorIs(t, err, ErrAnalysisInProgress)

	close(second)
	h.ctrl.Wait()

	after := h.ctrl.Snapshot()
	assert.False(t, after.Regenerating)
	assert.Equal(t, "재분석 영자", after.Profile.Name)
	assert.Equal(t, "data:image/webp;base64,Ag==", after.SelfPortrait)
	assert.Equal(t, "data:image/webp;base64,Ag==", after.PartnerPortrait)
	assert.Equal(t, 2, h.profiles.Calls())
	assert.Equal(t, 4, h.images.Calls())
}

func TestMatchCheckAndClear(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	toResult(t, h, models.GenderFemale)

	_, err := h.ctrl.CheckMatch("   ")
	assert.ErrorIs(t, err, ErrEmptyPartnerName)

	snap, err := h.ctrl.CheckMatch("16기 상철")
	require.NoError(t, err)
	assert.True(t, snap.Matching)
	assert.Equal(t, "16기 상철", snap.PartnerName)
	h.ctrl.Wait()

	snap = h.ctrl.Snapshot()
	require.NotNil(t, snap.Match)
	assert.False(t, snap.Matching)
	assert.GreaterOrEqual(t, snap.Match.MatchScore, 0)
	assert.LessOrEqual(t, snap.Match.MatchScore, 100)

	_, err = h.ctrl.CheckMatch("영호")
	assert.ErrorIs(t, err, ErrMatchPresent)

	snap, err = h.ctrl.ClearMatch()
	require.NoError(t, err)
	assert.Nil(t, snap.Match)
	assert.Empty(t, snap.PartnerName)

	_, err = h.ctrl.CheckMatch("영호")
	require.NoError(t, err)
	h.ctrl.Wait()

	reqs := h.matches.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Prompt, "16기 상철")
	assert.Contains(t, reqs[1].Prompt, "영호")
	assert.NotContains(t, reqs[1].Prompt, "16기 상철")
}

func TestMatchRequiresResultState(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))

	_, err := h.ctrl.CheckMatch("영호")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, h.matches.Calls())
}

func TestRestartResetsEverything(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	toResult(t, h, models.GenderFemale)
	_, err := h.ctrl.CheckMatch("16기 상철")
	require.NoError(t, err)
	h.ctrl.Wait()

	snap := h.ctrl.Restart()

	assert.Equal(t, StateWelcome, snap.State)
	assert.Equal(t, models.UserTraits{}, snap.Traits)
	assert.Empty(t, snap.Gender)
	assert.Nil(t, snap.Progress)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, snap.SelfPortrait)
	assert.Empty(t, snap.PartnerPortrait)
	assert.Nil(t, snap.Match)
	assert.Empty(t, snap.PartnerName)
	assert.False(t, snap.Regenerating || snap.GeneratingImages || snap.Matching)
	assert.Equal(t, "sess-1", snap.ID)

	_, _, err = h.ctrl.CurrentQuestion()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// firstThenBlock answers the first call with body and holds every later call
// until its context is cancelled.
func firstThenBlock(body string) *aitest.FakeText {
	var calls atomic.Int32
	return aitest.NewFakeText(func(ctx context.Context, _ ai.TextRequest) (string, error) {
		if calls.Add(1) == 1 {
			return body, nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
}

func TestRestartFromAnyState(t *testing.T) {
	tests := []struct {
		name     string
		profiles func() *aitest.FakeText
		matches  func() *aitest.FakeText
		setup    func(t *testing.T, h *harness)
	}{
		{
			name:  "welcome",
			setup: func(t *testing.T, h *harness) {},
		},
		{
			name: "gender select",
			setup: func(t *testing.T, h *harness) {
				_, err := h.ctrl.Start()
				require.NoError(t, err)
			},
		},
		{
			name: "mid quiz",
			setup: func(t *testing.T, h *harness) {
				_, err := h.ctrl.Start()
				require.NoError(t, err)
				_, err = h.ctrl.SelectGender(models.GenderMale)
				require.NoError(t, err)
				for i := 0; i < 2; i++ {
					q, _, err := h.ctrl.CurrentQuestion()
					require.NoError(t, err)
					_, err = h.ctrl.Answer(q.ID, "A")
					require.NoError(t, err)
				}
				snap := h.ctrl.Snapshot()
				require.Equal(t, StateQuiz, snap.State)
				require.NotEqual(t, models.UserTraits{}, snap.Traits)
			},
		},
		{
			name:     "result while regenerating",
			profiles: func() *aitest.FakeText { return firstThenBlock(aitest.ProfileJSON) },
			setup: func(t *testing.T, h *harness) {
				toResult(t, h, models.GenderFemale)
				snap, err := h.ctrl.Regenerate()
				require.NoError(t, err)
				require.True(t, snap.Regenerating)
			},
		},
		{
			name:    "result while matching",
			matches: func() *aitest.FakeText { return gated(make(chan struct{}), aitest.MatchJSON) },
			setup: func(t *testing.T, h *harness) {
				toResult(t, h, models.GenderMale)
				snap, err := h.ctrl.CheckMatch("영호")
				require.NoError(t, err)
				require.True(t, snap.Matching)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := aitest.Respond(aitest.ProfileJSON)
			if tt.profiles != nil {
				profiles = tt.profiles()
			}
			matches := aitest.Respond(aitest.MatchJSON)
			if tt.matches != nil {
				matches = tt.matches()
			}
			h := newHarness(t, profiles, matches, aitest.Image(1))
			tt.setup(t, h)

			snap := h.ctrl.Restart()
			h.ctrl.Wait()

			for _, s := range []Snapshot{snap, h.ctrl.Snapshot()} {
				assert.Equal(t, StateWelcome, s.State)
				assert.Equal(t, models.UserTraits{}, s.Traits)
				assert.Empty(t, s.Gender)
				assert.Nil(t, s.Progress)
				assert.Nil(t, s.Profile)
				assert.Nil(t, s.Match)
				assert.Empty(t, s.PartnerName)
				assert.Empty(t, s.SelfPortrait)
				assert.False(t, s.Regenerating || s.GeneratingImages || s.Matching)
			}
		})
	}
}

func TestClosedControllerRefusesWork(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	toResult(t, h, models.GenderFemale)
	h.ctrl.Close()

	_, err := h.ctrl.Regenerate()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.ctrl.CheckMatch("영호")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.ctrl.ClearMatch()
	assert.ErrorIs(t, err, ErrNotFound)

	h.ctrl.Wait()
	assert.Equal(t, 1, h.profiles.Calls())
	assert.Equal(t, 0, h.matches.Calls())
	assert.False(t, h.ctrl.Snapshot().Regenerating)
}

func TestRestartDiscardsInFlightAnalysis(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, gated(release, aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	_, err := h.ctrl.Start()
	require.NoError(t, err)
	_, err = h.ctrl.SelectGender(models.GenderMale)
	require.NoError(t, err)
	answerAll(t, h.ctrl, "B")

	h.ctrl.Restart()
	close(release)
	h.ctrl.Wait()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateWelcome, snap.State)
	assert.Nil(t, snap.Profile)
	assert.Equal(t, 0, h.images.Calls())
}

func TestTransitionsAreGuarded(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	c := h.ctrl

	_, err := c.SelectGender(models.GenderMale)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.Answer(1, "A")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.Regenerate()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.Back()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = c.Start()
	require.NoError(t, err)
	snap, err := c.Back()
	require.NoError(t, err)
	assert.Equal(t, StateWelcome, snap.State)

	_, err = c.Start()
	require.NoError(t, err)
	_, err = c.SelectGender(models.GenderMale)
	require.NoError(t, err)

	q, _, err := c.CurrentQuestion()
	require.NoError(t, err)
	_, err = c.Answer(q.ID, "Z")
	assert.ErrorIs(t, err, ErrUnknownOption)
	_, err = c.Answer(q.ID+100, "A")
	assert.ErrorIs(t, err, ErrStaleQuestion)

	_, err = c.SelectGender(models.GenderFemale)
	assert.ErrorIs(t, err, ErrInvalidTransition, "gender is fixed once the quiz starts")
}

func TestSelectGenderRefusesSmallPool(t *testing.T) {
	h := newHarness(t, aitest.Respond(aitest.ProfileJSON), aitest.Respond(aitest.MatchJSON), aitest.Image(1))
	h.ctrl.deps.Pool = testPool()[:3]

	_, err := h.ctrl.Start()
	require.NoError(t, err)
	_, err = h.ctrl.SelectGender(models.GenderMale)

	assert.ErrorIs(t, err, quiz.ErrPoolTooSmall)
	assert.Equal(t, StateGenderSelect, h.ctrl.Snapshot().State)
}
