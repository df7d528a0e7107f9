package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/validation"
)

var (
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrAlreadySubmitted   = errors.New("session already submitted")
	ErrNotAtReview        = errors.New("submission is only possible from the review step")
	// ErrSubmissionFailed wraps every error returned by the Submitter. Its
	// detail is for logs only.
	ErrSubmissionFailed = errors.New("failed to submit order")
)

// defaultStaleSubmission bounds how long an in-flight flag blocks a session.
// A flag older than this was left behind by a process that died mid-submit.
const defaultStaleSubmission = 5 * time.Minute

// Submitter turns a fully validated composite state into a persisted order
// and a checkout redirect.
type Submitter interface {
	Submit(ctx context.Context, state models.CompositeState) (*models.SubmissionResult, error)
}

// Catalog resolves the catalog entries the wizard prices and summarises.
type Catalog interface {
	GetProductWithOptions(ctx context.Context, productID string) (*models.Product, error)
	GetTheme(ctx context.Context, themeID string) (*models.ProductTheme, error)
	GetFormat(ctx context.Context, formatID string) (*models.ProductFormat, error)
}

// Orchestrator drives wizard sessions: binding step values, moving between
// steps and submitting the finished composite.
type Orchestrator struct {
	store     SessionStore
	validator *validation.Validator
	catalog   Catalog
	submitter Submitter
	locks     *keyedMutex
	now       func() time.Time
	newID     func() string

	staleSubmission time.Duration
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithStaleSubmission sets how long an in-flight submission keeps the
// session locked.
func WithStaleSubmission(d time.Duration) Option {
	return func(o *Orchestrator) { o.staleSubmission = d }
}

func NewOrchestrator(store SessionStore, validator *validation.Validator, catalog Catalog, submitter Submitter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:           store,
		validator:       validator,
		catalog:         catalog,
		submitter:       submitter,
		locks:           newKeyedMutex(),
		now:             time.Now,
		newID:           uuid.NewString,
		staleSubmission: defaultStaleSubmission,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	now := o.now()
	session := &Session{
		ID:        o.newID(),
		Step:      StepMemorialInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.WithField("session_id", session.ID).Debug("wizard session started")
	return session, nil
}

func (o *Orchestrator) Session(ctx context.Context, id string) (*Session, error) {
	return o.store.Get(ctx, id)
}

// UpdateDraft binds raw JSON step values into the session's drafts without
// validating them.
func (o *Orchestrator) UpdateDraft(ctx context.Context, id string, step Step, raw []byte) (*Session, error) {
	spec, ok := stepSpecs[step]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
	if spec.bind == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotBindable, step)
	}

	return o.mutate(ctx, id, func(s *Session) error {
		return spec.bind(&s.Drafts, raw)
	})
}

func (o *Orchestrator) AddPhoto(ctx context.Context, id string, file models.PhotoFile, preview string) (*Session, error) {
	return o.mutate(ctx, id, func(s *Session) error {
		s.Drafts.MemorialInfo.Photos = append(s.Drafts.MemorialInfo.Photos, models.Photo{
			ID:      o.newID(),
			File:    &file,
			Preview: preview,
		})
		return nil
	})
}

var ErrPhotoNotFound = errors.New("photo not found")

func (o *Orchestrator) RemovePhoto(ctx context.Context, id, photoID string) (*Session, error) {
	return o.mutate(ctx, id, func(s *Session) error {
		photos := s.Drafts.MemorialInfo.Photos
		kept := make([]models.Photo, 0, len(photos))
		for _, p := range photos {
			if p.ID != photoID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(photos) {
			return fmt.Errorf("%w: %s", ErrPhotoNotFound, photoID)
		}
		s.Drafts.MemorialInfo.Photos = kept
		return nil
	})
}

// AddToCart prices the product from the catalog and appends a new line to
// the kit draft.
func (o *Orchestrator) AddToCart(ctx context.Context, id string, req models.AddCartItemRequest) (*Session, error) {
	product, err := o.catalog.GetProductWithOptions(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", req.ProductID, err)
	}

	item, err := NewCartItem(o.newID(), *product, req)
	if err != nil {
		return nil, err
	}

	return o.mutate(ctx, id, func(s *Session) error {
		AddToCart(&s.Drafts.MemorialKit, item)
		return nil
	})
}

func (o *Orchestrator) UpdateCartItem(ctx context.Context, id, itemID string, req models.UpdateCartItemRequest) (*Session, error) {
	if req.CustomText != nil && req.PresetTextID != nil {
		return nil, ErrConflictingText
	}

	var preset *models.PresetText
	if req.PresetTextID != nil && *req.PresetTextID != "" {
		current, err := o.Session(ctx, id)
		if err != nil {
			return nil, err
		}
		item, err := findItem(&current.Drafts.MemorialKit, itemID)
		if err != nil {
			return nil, err
		}
		product, err := o.catalog.GetProductWithOptions(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}
		found, ok := product.FindPresetText(*req.PresetTextID)
		if !ok {
			return nil, fmt.Errorf("%w: preset text %s", ErrInvalidOption, *req.PresetTextID)
		}
		preset = found
	}

	return o.mutate(ctx, id, func(s *Session) error {
		kit := &s.Drafts.MemorialKit
		if req.Quantity != nil {
			if err := UpdateQuantity(kit, itemID, *req.Quantity); err != nil {
				return err
			}
		}
		switch {
		case req.CustomText != nil:
			return SetCustomText(kit, itemID, *req.CustomText)
		case preset != nil:
			return SetPresetText(kit, itemID, *preset)
		case req.PresetTextID != nil:
			// An empty preset id clears the text.
			return SetCustomText(kit, itemID, "")
		}
		if req.Quantity == nil {
			_, err := findItem(kit, itemID)
			return err
		}
		return nil
	})
}

func (o *Orchestrator) RemoveFromCart(ctx context.Context, id, itemID string) (*Session, error) {
	return o.mutate(ctx, id, func(s *Session) error {
		return RemoveFromCart(&s.Drafts.MemorialKit, itemID)
	})
}

// Advance validates the current step's draft. On success the draft is merged
// into the composite state and the session moves to the next step; the last
// step stays where it is. On failure a *validation.Error is returned and the
// session is left unchanged.
func (o *Orchestrator) Advance(ctx context.Context, id string) (*Session, error) {
	return o.mutate(ctx, id, func(s *Session) error {
		spec := stepSpecs[s.Step]

		fields, err := spec.validate(o.validator, s.Drafts)
		if err != nil {
			return err
		}
		if !fields.Valid() {
			return &validation.Error{Fields: fields}
		}

		spec.merge(&s.State, s.Drafts)
		if !s.Step.Last() {
			s.Step++
		}
		return nil
	})
}

// Retreat moves to the previous step without validating. The first step
// stays where it is.
func (o *Orchestrator) Retreat(ctx context.Context, id string) (*Session, error) {
	return o.mutate(ctx, id, func(s *Session) error {
		if !s.Step.First() {
			s.Step--
		}
		return nil
	})
}

// SubmitAll validates every step, then hands the composite state to the
// submitter. Nothing is submitted unless all steps are valid. While the
// submission runs the session is flagged so a second call fails with
// ErrSubmissionInFlight.
func (o *Orchestrator) SubmitAll(ctx context.Context, id string) (*Session, error) {
	unlock := o.locks.Lock(id)
	session, err := o.store.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if err := o.checkEditable(session); err != nil {
		unlock()
		return nil, err
	}
	if !session.Step.Last() {
		unlock()
		return nil, ErrNotAtReview
	}

	fields, err := o.validateAll(ctx, session.Drafts)
	if err != nil {
		unlock()
		return nil, err
	}
	if !fields.Valid() {
		unlock()
		return nil, &validation.Error{Fields: fields}
	}

	for _, step := range Steps() {
		stepSpecs[step].merge(&session.State, session.Drafts)
	}
	fields, err = o.validator.ValidateComplete(session.State)
	if err != nil {
		unlock()
		return nil, err
	}
	if !fields.Valid() {
		unlock()
		return nil, &validation.Error{Fields: fields}
	}
	session.Submitting = true
	session.SubmittingSince = o.now()
	session.UpdatedAt = session.SubmittingSince
	if err := o.store.Save(ctx, session); err != nil {
		unlock()
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	unlock()

	logger := log.WithField("session_id", id)
	logger.Info("submitting wizard session")

	result, submitErr := o.submitter.Submit(ctx, session.State)

	return o.finishSubmission(ctx, session, result, submitErr)
}

func (o *Orchestrator) finishSubmission(ctx context.Context, session *Session, result *models.SubmissionResult, submitErr error) (*Session, error) {
	// The flag must be cleared even if the caller went away.
	ctx = context.WithoutCancel(ctx)

	unlock := o.locks.Lock(session.ID)
	defer unlock()

	latest, err := o.store.Get(ctx, session.ID)
	if err != nil {
		latest = session
	}
	latest.Submitting = false
	latest.SubmittingSince = time.Time{}
	latest.UpdatedAt = o.now()
	if submitErr == nil {
		latest.OrderID = result.OrderID
		latest.CheckoutSessionID = result.CheckoutSessionID
		latest.CheckoutURL = result.CheckoutURL
	}

	if err := o.store.Save(ctx, latest); err != nil {
		log.WithError(err).WithField("session_id", session.ID).Error("failed to save session after submission")
	}

	if submitErr != nil {
		return latest, fmt.Errorf("%w: %w", ErrSubmissionFailed, submitErr)
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"order_id":   latest.OrderID,
	}).Info("wizard session submitted")
	return latest, nil
}

// validateAll runs every step's validation concurrently and merges the
// results, prefixed with the step name.
func (o *Orchestrator) validateAll(ctx context.Context, drafts models.CompositeState) (validation.FieldErrors, error) {
	steps := Steps()
	results := make([]validation.FieldErrors, len(steps))

	g, _ := errgroup.WithContext(ctx)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			fields, err := stepSpecs[step].validate(o.validator, drafts)
			if err != nil {
				return fmt.Errorf("failed to validate %s: %w", step, err)
			}
			results[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := validation.FieldErrors{}
	for i, step := range steps {
		merged.Merge(step.String(), results[i])
	}
	return merged, nil
}

// mutate loads the session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (o *Orchestrator) mutate(ctx context.Context, id string, fn func(s *Session) error) (*Session, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	session, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.checkEditable(session); err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	session.UpdatedAt = o.now()
	if err := o.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// checkEditable rejects sessions that are submitted or being submitted. A
// stale in-flight flag is cleared on the loaded copy.
func (o *Orchestrator) checkEditable(s *Session) error {
	if s.Submitting {
		age := o.now().Sub(s.SubmittingSince)
		if age < o.staleSubmission {
			return ErrSubmissionInFlight
		}
		log.WithFields(log.Fields{
			"session_id": s.ID,
			"age":        age.String(),
		}).Warn("clearing stale submission flag")
		s.Submitting = false
		s.SubmittingSince = time.Time{}
	}
	if s.Submitted() {
		return ErrAlreadySubmitted
	}
	return nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
