package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/quiz"
	"solo-persona/backend/pkg/logger"
)

// ProfileAnalyzer never fails; it resolves to a fallback profile instead.
type ProfileAnalyzer interface {
	AnalyzePersonality(ctx context.Context, traits models.UserTraits, gender models.Gender) models.CharacterProfile
}

// PortraitGenerator returns nil when no image could be produced.
type PortraitGenerator interface {
	GeneratePortrait(ctx context.Context, description string, gender models.Gender) *models.Portrait
}

// MatchAnalyzer never fails; it resolves to a fallback result instead.
type MatchAnalyzer interface {
	AnalyzeMatch(ctx context.Context, profile models.CharacterProfile, partner string) models.MatchResult
}

// Notifier receives a snapshot after every change. It is called with the
// session lock held and must not block or call back into the controller.
type Notifier func(Snapshot)

// Dependencies are shared by every controller.
type Dependencies struct {
	Profiles            ProfileAnalyzer
	Portraits           PortraitGenerator
	Matches             MatchAnalyzer
	Pool                []models.Question
	QuestionsPerSession int
	Notify              Notifier
	Logger              *logger.Logger
	NewRand             func() *rand.Rand
	Now                 func() time.Time
}

func (d *Dependencies) setDefaults() {
	if d.QuestionsPerSession <= 0 {
		d.QuestionsPerSession = 7
	}
	if d.Logger == nil {
		d.Logger = logger.GetGlobal()
	}
	if d.NewRand == nil {
		d.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Notify == nil {
		d.Notify = func(Snapshot) {}
	}
}

// Controller is the single owner of one Session. User actions are applied
// synchronously; the analysis cycle and match checks run in the background
// and apply their results only if the session has not moved on.
type Controller struct {
	id   string
	mu   sync.Mutex
	s    Session
	deps Dependencies
	rng  *rand.Rand
	log  *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	cycleGen    uint64
	cycleCancel context.CancelFunc
	matchGen    uint64
	matchCancel context.CancelFunc

	closed bool
	wg     sync.WaitGroup
}

// NewController creates a controller in the Welcome state.
func NewController(id string, deps Dependencies) *Controller {
	deps.setDefaults()
	now := deps.Now()
	log := deps.Logger.WithSessionID(id)

	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), log))
	return &Controller{
		id: id,
		s: Session{
			ID:        id,
			State:     StateWelcome,
			CreatedAt: now,
			UpdatedAt: now,
		},
		deps:   deps,
		rng:    deps.NewRand(),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.snapshot()
}

// Start moves Welcome to GenderSelect.
func (c *Controller) Start() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateWelcome); err != nil {
		return Snapshot{}, err
	}
	c.s.State = StateGenderSelect
	return c.changed(), nil
}

// Back returns from GenderSelect to Welcome.
func (c *Controller) Back() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateGenderSelect); err != nil {
		return Snapshot{}, err
	}
	c.s.State = StateWelcome
	return c.changed(), nil
}

// SelectGender fixes the gender and samples the session's questions.
func (c *Controller) SelectGender(g models.Gender) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateGenderSelect); err != nil {
		return Snapshot{}, err
	}
	questions, err := quiz.Sample(c.deps.Pool, c.deps.QuestionsPerSession, c.rng)
	if err != nil {
		return Snapshot{}, err
	}

	c.s.Gender = g
	c.s.Questions = questions
	c.s.Index = 0
	c.s.Traits = models.UserTraits{}
	c.s.State = StateQuiz
	c.log.Info("quiz started", "gender", string(g), "questions", len(questions))
	return c.changed(), nil
}

// CurrentQuestion returns the question awaiting an answer.
func (c *Controller) CurrentQuestion() (models.Question, Progress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateQuiz); err != nil {
		return models.Question{}, Progress{}, err
	}
	return c.s.Questions[c.s.Index], c.s.progress(), nil
}

// Answer applies the chosen option of the current question. The final
// answer moves the session to Analyzing and starts the analysis cycle.
func (c *Controller) Answer(questionID int, optionID string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateQuiz); err != nil {
		return Snapshot{}, err
	}
	q := c.s.Questions[c.s.Index]
	if q.ID != questionID {
		return Snapshot{}, fmt.Errorf("%w: current question is %d", ErrStaleQuestion, q.ID)
	}
	opt, ok := q.Option(optionID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q on question %d", ErrUnknownOption, optionID, q.ID)
	}

	c.s.Traits = c.s.Traits.Add(opt)
	if c.s.Index < len(c.s.Questions)-1 {
		c.s.Index++
		return c.changed(), nil
	}

	c.s.State = StateAnalyzing
	snap := c.changed()
	c.startCycle(false)
	return snap, nil
}

// Regenerate re-runs the analysis cycle in place. A second trigger while a
// regeneration is pending is refused. Portraits still in flight from the
// previous cycle are cancelled and their results discarded.
func (c *Controller) Regenerate() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateResult); err != nil {
		return Snapshot{}, err
	}
	if c.s.Regenerating {
		return Snapshot{}, ErrAnalysisInProgress
	}

	c.s.Regenerating = true
	snap := c.changed()
	c.startCycle(true)
	return snap, nil
}

// CheckMatch starts a compatibility check against partner.
func (c *Controller) CheckMatch(partner string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateResult); err != nil {
		return Snapshot{}, err
	}
	if c.s.Profile == nil {
		return Snapshot{}, ErrNoProfile
	}
	partner = strings.TrimSpace(partner)
	if partner == "" {
		return Snapshot{}, ErrEmptyPartnerName
	}
	if c.s.Matching {
		return Snapshot{}, ErrMatchInProgress
	}
	if c.s.Match != nil {
		return Snapshot{}, ErrMatchPresent
	}

	c.s.PartnerName = partner
	c.s.Matching = true
	snap := c.changed()
	c.startMatch(*c.s.Profile, partner)
	return snap, nil
}

// ClearMatch drops the match result and partner name so a new check can run.
func (c *Controller) ClearMatch() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateResult); err != nil {
		return Snapshot{}, err
	}
	c.abortMatch()
	return c.changed(), nil
}

// Restart cancels background work and returns every field to its initial value.
// It is accepted from any state.
func (c *Controller) Restart() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abortCycle()
	c.abortMatch()
	c.s.reset()
	c.log.Info("session restarted")
	return c.changed()
}

// Portrait returns the portrait in slot, if any.
func (c *Controller) Portrait(slot Slot) (*models.Portrait, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.s.SelfPortrait
	if slot == SlotPartner {
		p = c.s.PartnerPortrait
	}
	if p == nil {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Wait blocks until all background work has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels all background work and waits for it. Afterwards every
// guarded action fails with ErrNotFound, so a handler still holding an
// evicted controller cannot start new work.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) require(want State) error {
	if c.closed {
		return fmt.Errorf("%w: %s was closed", ErrNotFound, c.id)
	}
	if c.s.State != want {
		return fmt.Errorf("%w: session is in %s, need %s", ErrInvalidTransition, c.s.State, want)
	}
	return nil
}

// changed stamps the session and publishes it. Caller holds the lock.
func (c *Controller) changed() Snapshot {
	c.s.Version++
	c.s.UpdatedAt = c.deps.Now()
	snap := c.s.snapshot()
	c.deps.Notify(snap)
	return snap
}

func (c *Controller) abortCycle() {
	c.cycleGen++
	if c.cycleCancel != nil {
		c.cycleCancel()
		c.cycleCancel = nil
	}
}

func (c *Controller) abortMatch() {
	c.matchGen++
	if c.matchCancel != nil {
		c.matchCancel()
		c.matchCancel = nil
	}
	c.s.Match = nil
	c.s.PartnerName = ""
	c.s.Matching = false
}
