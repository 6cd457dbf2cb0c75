package wizard

import (
	"context"
	"fmt"
	"time"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
)

// Fetcher produces recommendations for a request. Implementations never
// fail; a non-nil notice marks a fallback result.
type Fetcher interface {
	Fetch(ctx context.Context, req recommendation.Request, timeout time.Duration) (recommendation.Result, *recommendation.Notice)
}

// Controller drives one session through its flow. It is not safe for
// concurrent use; callers serialize access per session.
type Controller struct {
	flow    Flow
	session *Session
	fetcher Fetcher
	timeout time.Duration
	now     func() time.Time
}

// NewController binds a session to its flow. A state that no longer fits
// the flow is clamped back into range.
func NewController(flow Flow, session *Session, fetcher Fetcher, timeout time.Duration) (*Controller, error) {
	if session.Flow != flow.Name {
		return nil, fmt.Errorf("%w: %s != %s", ErrFlowMismatch, session.Flow, flow.Name)
	}
	if session.Profile == nil {
		session.Profile = profile.NewStore()
	}
	total := flow.TotalSteps()
	session.State.TotalSteps = total
	if session.State.CurrentStep < 1 {
		session.State.CurrentStep = 1
	}
	if session.State.CurrentStep > total {
		session.State.CurrentStep = total
	}
	return &Controller{
		flow:    flow,
		session: session,
		fetcher: fetcher,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (c *Controller) Session() *Session { return c.session }

func (c *Controller) State() State { return c.session.State }

// CurrentStep returns the step the session is on.
func (c *Controller) CurrentStep() Step {
	step, _ := c.flow.Step(c.session.State.CurrentStep)
	return step
}

// Answer records user answers. Answers never move the session.
func (c *Controller) Answer(values map[profile.Field]any) {
	for field, value := range values {
		c.session.Profile.Set(field, value)
	}
	c.touch()
}

// MergeAnalysis applies an image analysis and returns the fields it filled.
func (c *Controller) MergeAnalysis(analysis profile.ImageAnalysis) []profile.Field {
	filled := c.session.Profile.Merge(analysis)
	c.touch()
	return filled
}

// Advance moves one step forward once the current step's requirements
// hold. Entering the results step fetches recommendations unless a result
// is already cached; if the request cannot be built the session stays put.
func (c *Controller) Advance(ctx context.Context) error {
	cur := c.session.State.CurrentStep
	if err := c.validateStep(cur); err != nil {
		return err
	}
	next := cur + 1
	if next >= c.session.State.TotalSteps {
		return c.enterResults(ctx)
	}
	c.session.State.CurrentStep = next
	c.touch()
	return nil
}

// Retreat moves one step back, stopping at the first step. The cached
// result is kept.
func (c *Controller) Retreat() {
	if c.session.State.CurrentStep > 1 {
		c.session.State.CurrentStep--
		c.touch()
	}
}

// JumpToResults goes straight to the results step when every earlier step
// is satisfied.
func (c *Controller) JumpToResults(ctx context.Context) error {
	for n := 1; n < c.session.State.TotalSteps; n++ {
		if err := c.validateStep(n); err != nil {
			return err
		}
	}
	return c.enterResults(ctx)
}

// Reset clears answers, analysis and cached results and returns to the
// first step.
func (c *Controller) Reset() {
	c.session.Profile.Reset()
	c.session.Result = nil
	c.session.Notice = nil
	c.session.ImageKey = ""
	c.session.State.CurrentStep = 1
	c.touch()
}

// Results returns the cached recommendations, fetching them the first time
// the results step is shown.
func (c *Controller) Results(ctx context.Context) (recommendation.Result, *recommendation.Notice, error) {
	if !c.session.AtResults() {
		return recommendation.Result{}, nil, ErrNotAtResults
	}
	if c.session.Result == nil {
		req, err := recommendation.Build(c.session.Profile.Snapshot())
		if err != nil {
			return recommendation.Result{}, nil, err
		}
		c.fetch(ctx, req)
	}
	return *c.session.Result, c.session.Notice, nil
}

// Regenerate discards the cached result and fetches again. The old result
// stays in place until the new one is ready.
func (c *Controller) Regenerate(ctx context.Context) error {
	if !c.session.AtResults() {
		return ErrNotAtResults
	}
	req, err := recommendation.Build(c.session.Profile.Snapshot())
	if err != nil {
		return err
	}
	c.fetch(ctx, req)
	return nil
}

func (c *Controller) enterResults(ctx context.Context) error {
	if c.session.Result == nil {
		req, err := recommendation.Build(c.session.Profile.Snapshot())
		if err != nil {
			return err
		}
		c.fetch(ctx, req)
	}
	c.session.State.CurrentStep = c.session.State.TotalSteps
	c.touch()
	return nil
}

func (c *Controller) fetch(ctx context.Context, req recommendation.Request) {
	result, notice := c.fetcher.Fetch(ctx, req, c.timeout)
	c.session.Result = &result
	c.session.Notice = notice
	c.touch()
}

func (c *Controller) validateStep(n int) error {
	step, ok := c.flow.Step(n)
	if !ok {
		return nil
	}
	for _, req := range step.Required {
		if !req.satisfiedBy(c.session.Profile) {
			return &profile.ValidationError{Field: string(req[0]), Issue: "is required"}
		}
	}
	return nil
}

func (c *Controller) touch() {
	c.session.UpdatedAt = c.now()
}
