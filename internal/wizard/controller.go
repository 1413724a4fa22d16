package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/progress"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

//go:generate mockgen -source=controller.go -destination=controller_mock.go -package=wizard
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

type Assembler interface {
	Assemble(ctx context.Context, app policy.Application, editingID string) (*policy.Policy, error)
	Get(ctx context.Context, id string) (*policy.Policy, error)
}

type Documents interface {
	Attach(ctx context.Context, name, mediaType string, data []byte) (*policy.DocumentRef, error)
	Remove(ctx context.Context, ref *policy.DocumentRef) error
}

// Controller drives one user's wizard session. It owns the State, saves
// it after every transition and restores it on Start.
type Controller struct {
	auth     Authenticator
	policies Assembler
	docs     Documents
	progress *progress.Bridge[Draft]
	calc     *premium.Calculator

	mu      sync.Mutex
	state   State
	started bool
	// original is the document key of the policy being edited; that blob
	// stays until the edit is submitted.
	original string
}

func NewController(
	auth Authenticator,
	policies Assembler,
	docs Documents,
	bridge *progress.Bridge[Draft],
	calc *premium.Calculator,
) *Controller {
	return &Controller{
		auth:     auth,
		policies: policies,
		docs:     docs,
		progress: bridge,
		calc:     calc,
		state:    NewState(),
	}
}

// Start checks the login and resumes saved progress, if any.
func (c *Controller) Start(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return State{}, err
	}

	return c.state, nil
}

func (c *Controller) start(ctx context.Context) error {
	if c.started {
		return nil
	}

	if !c.auth.IsAuthenticated(ctx) {
		return ErrUnauthenticated
	}

	snap, ok, err := c.progress.Load(ctx)
	if err != nil {
		return err
	}

	c.state = NewState()

	if ok {
		step := min(max(Step(snap.CurrentStep), FirstStep), LastStep)

		c.state = State{
			Step:    step,
			Reached: min(max(Step(snap.Reached), step), LastStep),
			Draft:   snap.Data,
		}

		if snap.Data.EditingID != "" {
			if p, err := c.policies.Get(ctx, snap.Data.EditingID); err == nil && p.IDDocument != nil {
				c.original = p.IDDocument.Key
			}
		}

		slog.Info("resumed wizard progress", "step", step, "last_saved", snap.LastSaved)
	}

	c.started = true

	return nil
}

// Suspend forgets the in-memory session so the next call re-checks the
// login. Saved progress is kept.
func (c *Controller) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.started = false
	c.state = NewState()
	c.original = ""
}

// State returns the current position and draft.
func (c *Controller) State(ctx context.Context) (State, error) {
	return c.Start(ctx)
}

// Edit loads an existing policy into the draft and restarts at step 1.
func (c *Controller) Edit(ctx context.Context, policyID string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.auth.IsAuthenticated(ctx) {
		return State{}, ErrUnauthenticated
	}

	p, err := c.policies.Get(ctx, policyID)
	if err != nil {
		return State{}, err
	}

	if p.Status == policy.StatusCancelled {
		return State{}, policy.ErrCancelled
	}

	c.discardUpload(ctx)

	c.state = State{Step: FirstStep, Reached: LastStep, Draft: FromPolicy(p)}
	c.started = true
	c.original = ""

	if p.IDDocument != nil {
		c.original = p.IDDocument.Key
	}

	c.save(ctx)

	return c.state, nil
}

func (c *Controller) Next(ctx context.Context, in Input) (State, error) {
	return c.transition(ctx, func(s State) (State, error) {
		return Next(s, in)
	})
}

func (c *Controller) Previous(ctx context.Context, in Input) (State, error) {
	return c.transition(ctx, func(s State) (State, error) {
		return Previous(s, in), nil
	})
}

func (c *Controller) JumpTo(ctx context.Context, step Step) (State, error) {
	return c.transition(ctx, func(s State) (State, error) {
		return JumpTo(s, step)
	})
}

func (c *Controller) transition(ctx context.Context, fn func(State) (State, error)) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return State{}, err
	}

	next, err := fn(c.state)
	if err != nil {
		return c.state, err
	}

	c.state = next
	c.save(ctx)

	return c.state, nil
}

// AttachDocument stores an upload and puts it on the draft, replacing
// any previous upload.
func (c *Controller) AttachDocument(ctx context.Context, name, mediaType string, data []byte) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return State{}, err
	}

	ref, err := c.docs.Attach(ctx, name, mediaType, data)
	if err != nil {
		return c.state, err
	}

	c.discardUpload(ctx)
	c.state.Draft.IDDocument = ref
	c.save(ctx)

	return c.state, nil
}

func (c *Controller) DetachDocument(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return State{}, err
	}

	c.discardUpload(ctx)
	c.state.Draft.IDDocument = nil
	c.save(ctx)

	return c.state, nil
}

// Submit validates the checkout step and issues the policy. The draft and
// saved progress are cleared only when the policy was stored.
func (c *Controller) Submit(ctx context.Context, in Checkout) (*policy.Policy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return nil, err
	}

	final, err := Finalize(c.state, in)
	if err != nil {
		return nil, err
	}

	p, err := c.policies.Assemble(ctx, final.Draft.Application(), final.Draft.EditingID)
	if err != nil {
		return nil, fmt.Errorf("assembling policy: %w", err)
	}

	if c.original != "" && (p.IDDocument == nil || p.IDDocument.Key != c.original) {
		if err := c.docs.Remove(ctx, &policy.DocumentRef{Key: c.original}); err != nil {
			slog.Error("failed to remove replaced document", "key", c.original, "error", err)
		}
	}

	c.reset(ctx)

	return p, nil
}

// Abandon drops the draft, any unsubmitted upload and the saved progress.
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(ctx); err != nil {
		return err
	}

	c.discardUpload(ctx)
	c.reset(ctx)

	return nil
}

// Quote prices the current draft.
func (c *Controller) Quote() (premium.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Draft.Quote(c.calc)
}

func (c *Controller) reset(ctx context.Context) {
	c.state = NewState()
	c.original = ""

	if err := c.progress.Clear(ctx); err != nil {
		slog.Error("failed to clear wizard progress", "error", err)
	}
}

func (c *Controller) save(ctx context.Context) {
	if err := c.progress.Save(ctx, int(c.state.Step), int(c.state.Reached), c.state.Draft); err != nil {
		slog.Error("failed to save wizard progress", "step", c.state.Step, "error", err)
	}
}

// discardUpload removes the draft's document unless it belongs to the
// policy being edited.
func (c *Controller) discardUpload(ctx context.Context) {
	ref := c.state.Draft.IDDocument
	if ref == nil || ref.Key == c.original {
		return
	}

	if err := c.docs.Remove(ctx, ref); err != nil {
		slog.Error("failed to remove document", "key", ref.Key, "error", err)
	}
}

// FieldErrors extracts validation failures from err.
func FieldErrors(err error) (validation.Errors, bool) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs, true
	}

	return nil, false
}
