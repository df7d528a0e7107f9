package wizard

import (
	"time"

	"memorial-storefront/internal/models"
)

// Session is one customer's pass through the wizard. Drafts hold the values
// bound on each step as typed; State holds the values merged after the step
// validated.
type Session struct {
	ID                string                `json:"id"`
	Step              Step                  `json:"step"`
	Drafts            models.CompositeState `json:"drafts"`
	State             models.CompositeState `json:"state"`
	Submitting        bool                  `json:"submitting"`
	SubmittingSince   time.Time             `json:"submitting_since"`
	OrderID           string                `json:"order_id,omitempty"`
	CheckoutSessionID string                `json:"checkout_session_id,omitempty"`
	CheckoutURL       string                `json:"checkout_url,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func (s *Session) Submitted() bool {
	return s.OrderID != ""
}

// Redacted returns a copy of the session without photo bytes, suitable for
// API responses.
func (s *Session) Redacted() *Session {
	out := *s
	out.Drafts.MemorialInfo.Photos = redactPhotos(s.Drafts.MemorialInfo.Photos)
	out.State.MemorialInfo.Photos = redactPhotos(s.State.MemorialInfo.Photos)
	return &out
}

func redactPhotos(photos []models.Photo) []models.Photo {
	if photos == nil {
		return nil
	}
	out := make([]models.Photo, len(photos))
	for i, p := range photos {
		out[i] = p
		if p.File != nil {
			file := *p.File
			file.Data = nil
			out[i].File = &file
		}
	}
	return out
}
