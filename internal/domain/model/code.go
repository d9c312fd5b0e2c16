package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"qr-redirect/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CodeKind tells which payload variant a Code carries.
type CodeKind string

const (
	KindURL    CodeKind = "url"
	KindVCard  CodeKind = "vcard"
	KindTicket CodeKind = "ticket"
)

func (k CodeKind) Valid() bool {
	switch k {
	case KindURL, KindVCard, KindTicket:
		return true
	}
	return false
}

var (
	validate    = validator.New()
	codeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)
)

// URLPayload is the destination of a plain redirect code.
type URLPayload struct {
	URL string `json:"url" validate:"required,http_url"`
}

// VCardPayload is a digital business card.
type VCardPayload struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name,omitempty" validate:"max=100"`
	Organization string `json:"organization,omitempty" validate:"max=200"`
	Title        string `json:"title,omitempty" validate:"max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone,omitempty" validate:"max=40"`
	Website      string `json:"website,omitempty" validate:"omitempty,url"`
	Address      string `json:"address,omitempty" validate:"max=300"`
	Note         string `json:"note,omitempty" validate:"max=1000"`
}

// TicketPayload is an event admission ticket. The event itself lives outside this service;
// only its reference and display name are kept.
type TicketPayload struct {
	EventID    string     `json:"event_id" validate:"required,max=64"`
	EventName  string     `json:"event_name,omitempty" validate:"max=200"`
	HolderName string     `json:"holder_name,omitempty" validate:"max=200"`
	Seat       string     `json:"seat,omitempty" validate:"max=40"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// ValidAt reports whether t falls inside the ticket's validity window.
// Open ends are unbounded.
func (t *TicketPayload) ValidAt(at time.Time) bool {
	if t.ValidFrom != nil && at.Before(*t.ValidFrom) {
		return false
	}
	if t.ValidUntil != nil && at.After(*t.ValidUntil) {
		return false
	}
	return true
}

// Payload is a tagged variant: exactly one field is set and it matches Code.Kind.
type Payload struct {
	URL    *URLPayload    `json:"url,omitempty"`
	VCard  *VCardPayload  `json:"vcard,omitempty"`
	Ticket *TicketPayload `json:"ticket,omitempty"`
}

// Code is a persisted short-code record. ID doubles as the short code.
type Code struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Kind      CodeKind  `json:"kind"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCode validates and constructs a Code. An empty id gets a generated one.
func NewCode(id, ownerID string, kind CodeKind, payload Payload) (*Code, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewCodeID()
	} else if !ValidCodeID(id) {
		return nil, fmt.Errorf("%w: id must match %s", domain.ErrInvalidArgument, codeIDRegex.String())
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidArgument)
	}
	c := &Code{
		ID:        id,
		OwnerID:   ownerID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the payload variant matches the kind and that its fields are well formed.
func (c *Code) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidArgument, c.Kind)
	}
	set := 0
	for _, present := range []bool{c.Payload.URL != nil, c.Payload.VCard != nil, c.Payload.Ticket != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one payload variant must be set", domain.ErrInvalidArgument)
	}

	var target any
	switch c.Kind {
	case KindURL:
		target = c.Payload.URL
	case KindVCard:
		target = c.Payload.VCard
	case KindTicket:
		target = c.Payload.Ticket
	}
	// a nil typed pointer here means the set variant belongs to another kind
	switch v := target.(type) {
	case *URLPayload:
		if v == nil {
			return kindMismatch(c.Kind)
		}
	case *VCardPayload:
		if v == nil {
			return kindMismatch(c.Kind)
		}
	case *TicketPayload:
		if v == nil {
			return kindMismatch(c.Kind)
		}
		if v.ValidFrom != nil && v.ValidUntil != nil && v.ValidUntil.Before(*v.ValidFrom) {
			return fmt.Errorf("%w: ticket valid_until precedes valid_from", domain.ErrInvalidArgument)
		}
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// RedirectTarget is where a visitor is sent after resolving this code.
// vCard and ticket codes point at this service's own rendering endpoints.
func (c *Code) RedirectTarget(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch c.Kind {
	case KindURL:
		if c.Payload.URL != nil {
			return c.Payload.URL.URL
		}
	case KindVCard:
		return base + "/vcards/" + c.ID
	case KindTicket:
		return base + "/tickets/" + c.ID
	}
	return ""
}

func kindMismatch(kind CodeKind) error {
	return fmt.Errorf("%w: payload does not match kind %q", domain.ErrInvalidArgument, kind)
}

// NewCodeID returns a 12 character identifier taken from a random UUID.
func NewCodeID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func ValidCodeID(id string) bool { return codeIDRegex.MatchString(id) }
