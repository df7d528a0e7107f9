package wizard

import (
	"encoding/json"
	"errors"
	"fmt"

	"memorial-storefront/internal/models"
	"memorial-storefront/internal/validation"
)

// Step identifies one screen of the customization wizard.
type Step int

const (
	StepMemorialInfo Step = iota
	StepMemorialKit
	StepTheme
	StepFormat
	StepReview
)

var stepNames = [...]string{
	StepMemorialInfo: "memorial-info",
	StepMemorialKit:  "memorial-kit",
	StepTheme:        "theme",
	StepFormat:       "format",
	StepReview:       "review",
}

// Steps returns every step in wizard order.
func Steps() []Step {
	return []Step{StepMemorialInfo, StepMemorialKit, StepTheme, StepFormat, StepReview}
}

var (
	ErrUnknownStep     = errors.New("unknown wizard step")
	ErrStepNotBindable = errors.New("wizard step is not bound directly")
	ErrInvalidDraft    = errors.New("invalid step values")
)

func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) Valid() bool {
	return s >= StepMemorialInfo && s <= StepReview
}

func (s Step) First() bool { return s == StepMemorialInfo }
func (s Step) Last() bool  { return s == StepReview }

func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// stepSpec describes how a step's draft is bound, validated and merged into
// the composite state.
type stepSpec struct {
	validate func(v *validation.Validator, drafts models.CompositeState) (validation.FieldErrors, error)
	merge    func(state *models.CompositeState, drafts models.CompositeState)
	// bind decodes raw step values into the drafts. nil means the step is
	// edited through dedicated operations instead.
	bind func(drafts *models.CompositeState, raw []byte) error
}

var stepSpecs = map[Step]stepSpec{
	StepMemorialInfo: {
		validate: func(v *validation.Validator, d models.CompositeState) (validation.FieldErrors, error) {
			return v.ValidateMemorialInfo(d.MemorialInfo)
		},
		merge: func(s *models.CompositeState, d models.CompositeState) {
			s.MemorialInfo = d.MemorialInfo
		},
		bind: func(d *models.CompositeState, raw []byte) error {
			var req models.MemorialInfoRequest
			if err := decodeDraft(raw, &req); err != nil {
				return err
			}
			d.MemorialInfo.FullName = req.FullName
			d.MemorialInfo.DOB = req.DOB
			d.MemorialInfo.DOP = req.DOP
			d.MemorialInfo.DOM = req.DOM
			return nil
		},
	},
	StepMemorialKit: {
		validate: func(v *validation.Validator, d models.CompositeState) (validation.FieldErrors, error) {
			return v.ValidateMemorialKit(d.MemorialKit)
		},
		merge: func(s *models.CompositeState, d models.CompositeState) {
			s.MemorialKit = models.MemorialKit{CartItems: append([]models.CartItem(nil), d.MemorialKit.CartItems...)}
		},
	},
	StepTheme: {
		validate: func(v *validation.Validator, d models.CompositeState) (validation.FieldErrors, error) {
			return v.ValidateTheme(d.Theme)
		},
		merge: func(s *models.CompositeState, d models.CompositeState) {
			s.Theme = d.Theme
		},
		bind: func(d *models.CompositeState, raw []byte) error {
			return decodeDraft(raw, &d.Theme)
		},
	},
	StepFormat: {
		validate: func(v *validation.Validator, d models.CompositeState) (validation.FieldErrors, error) {
			return v.ValidateFormat(d.Format)
		},
		merge: func(s *models.CompositeState, d models.CompositeState) {
			s.Format = d.Format
		},
		bind: func(d *models.CompositeState, raw []byte) error {
			return decodeDraft(raw, &d.Format)
		},
	},
	StepReview: {
		validate: func(v *validation.Validator, d models.CompositeState) (validation.FieldErrors, error) {
			return v.ValidateEmail(d.Email)
		},
		merge: func(s *models.CompositeState, d models.CompositeState) {
			s.Email = d.Email
		},
		bind: func(d *models.CompositeState, raw []byte) error {
			return decodeDraft(raw, &d.Email)
		},
	},
}

func decodeDraft(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return nil
}
