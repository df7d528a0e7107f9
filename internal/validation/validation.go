// Package validation holds the per-step rules of the customization wizard
// and the union of them used before an order is submitted.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"memorial-storefront/internal/models"
)

const (
	MsgFullNameRequired = "Full name is required"
	MsgDOMRequired      = "Date of Memorial is required"
	MsgPhotosRequired   = "At least one photo is required"
	MsgDOBPast          = "Date of Birth must be in the past"
	MsgDOPPast          = "Date of Passing must be in the past"
	MsgDOPAfterDOB      = "Date of Passing must be after Date of Birth"
	MsgKitRequired      = "Please select at least one product for your memorial kit"
	MsgQuantityMin      = "Quantity must be at least 1"
	MsgThemeRequired    = "Please select a design theme for your memorial products"
	MsgFormatRequired   = "Please select a format (digital or physical) for your memorial products"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
)

// messages maps "<json field>.<tag>" to the user-facing message.
var messages = map[string]string{
	"fullName.required":         MsgFullNameRequired,
	"dom.required":              MsgDOMRequired,
	"photos.min":                MsgPhotosRequired,
	"cartItems.min":             MsgKitRequired,
	"quantity.min":              MsgQuantityMin,
	"id.required":               "Cart item id is required",
	"productId.required":        "Product is required",
	"selectedThemeId.required":  MsgThemeRequired,
	"selectedFormatId.required": MsgFormatRequired,
	"email.required":            MsgEmailRequired,
	"email.email":               MsgEmailInvalid,
}

// FieldErrors maps a field path (for example "cartItems[0].quantity") to a
// message. An empty map means the value is valid.
type FieldErrors map[string]string

func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Merge copies other into fe, prefixing each path with prefix and a dot.
func (fe FieldErrors) Merge(prefix string, other FieldErrors) {
	for path, msg := range other {
		if prefix != "" {
			path = prefix + "." + path
		}
		fe.add(path, msg)
	}
}

// add keeps the first message reported for a path.
func (fe FieldErrors) add(path, msg string) {
	if _, exists := fe[path]; !exists {
		fe[path] = msg
	}
}

// Clock returns the current moment. Temporal rules compare against it.
type Clock func() time.Time

type Option func(*Validator)

func WithClock(clock Clock) Option {
	return func(v *Validator) {
		v.now = clock
	}
}

type Validator struct {
	validate *validator.Validate
	now      Clock
}

func New(opts ...Option) *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})

	v := &Validator{validate: validate, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) ValidateMemorialInfo(info models.MemorialInfo) (FieldErrors, error) {
	errs, err := v.structErrors(info)
	if err != nil {
		return nil, err
	}

	now := v.now()
	if info.DOB != nil && !info.DOB.Before(now) {
		errs.add("dob", MsgDOBPast)
	}
	if info.DOP != nil && !info.DOP.Before(now) {
		errs.add("dop", MsgDOPPast)
	}
	if info.DOB != nil && info.DOP != nil && !info.DOP.After(*info.DOB) {
		errs.add("dop", MsgDOPAfterDOB)
	}
	return errs, nil
}

func (v *Validator) ValidateMemorialKit(kit models.MemorialKit) (FieldErrors, error) {
	return v.structErrors(kit)
}

func (v *Validator) ValidateTheme(theme models.ThemeSelection) (FieldErrors, error) {
	return v.structErrors(theme)
}

func (v *Validator) ValidateFormat(format models.FormatSelection) (FieldErrors, error) {
	return v.structErrors(format)
}

func (v *Validator) ValidateEmail(email models.ContactEmail) (FieldErrors, error) {
	return v.structErrors(email)
}

// ValidateComplete applies every step's rules to the composite state. Paths
// are prefixed with the step's key in CompositeState.
func (v *Validator) ValidateComplete(state models.CompositeState) (FieldErrors, error) {
	parts := []struct {
		prefix string
		check  func() (FieldErrors, error)
	}{
		{"memorialInfo", func() (FieldErrors, error) { return v.ValidateMemorialInfo(state.MemorialInfo) }},
		{"memorialKit", func() (FieldErrors, error) { return v.ValidateMemorialKit(state.MemorialKit) }},
		{"theme", func() (FieldErrors, error) { return v.ValidateTheme(state.Theme) }},
		{"format", func() (FieldErrors, error) { return v.ValidateFormat(state.Format) }},
		{"email", func() (FieldErrors, error) { return v.ValidateEmail(state.Email) }},
	}

	errs := FieldErrors{}
	for _, part := range parts {
		fe, err := part.check()
		if err != nil {
			return nil, err
		}
		errs.Merge(part.prefix, fe)
	}
	return errs, nil
}

// ValidateOrderRequest checks the parts of a create-order request that the
// order can not be built without.
func (v *Validator) ValidateOrderRequest(req models.CreateOrderRequest) (FieldErrors, error) {
	errs := FieldErrors{}

	emailErrs, err := v.ValidateEmail(models.ContactEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	errs.Merge("", emailErrs)

	kitErrs, err := v.ValidateMemorialKit(req.FormData.MemorialKit)
	if err != nil {
		return nil, err
	}
	errs.Merge("formData.memorialKit", kitErrs)

	themeErrs, err := v.ValidateTheme(req.FormData.Theme)
	if err != nil {
		return nil, err
	}
	errs.Merge("formData.theme", themeErrs)

	formatErrs, err := v.ValidateFormat(req.FormData.Format)
	if err != nil {
		return nil, err
	}
	errs.Merge("formData.format", formatErrs)

	return errs, nil
}

func (v *Validator) structErrors(value interface{}) (FieldErrors, error) {
	errs := FieldErrors{}

	err := v.validate.Struct(value)
	if err == nil {
		return errs, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("failed to validate %T: %w", value, err)
	}

	for _, fe := range verrs {
		errs.add(fieldPath(fe), message(fe))
	}
	return errs, nil
}

// fieldPath drops the root struct name from the namespace,
// "MemorialKit.cartItems[0].quantity" becomes "cartItems[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// ErrInvalid matches every *Error with errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error is returned by operations that refuse to proceed on invalid input.
// It carries the field errors for the response body.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}
