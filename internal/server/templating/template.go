package templating

import (
	"strings"
	"time"

	"github.com/sendly-app/sendly/internal/server/models"
)

// PredefinedPrefix marks a template reference that names a catalogue entry
// rather than a stored template id.
const PredefinedPrefix = "predefined:"

// Template is the common view of predefined and stored templates.
type Template interface {
	// Ref identifies the template in API paths and scheduled sends.
	Ref() string
	Name() string
	Subject() string
	HTML() string
	Variables() []string
	Category() string
	// Readable reports whether userID may view and send the template.
	Readable(userID string) bool
	// Writable reports whether userID may edit or delete the template.
	Writable(userID string) bool
}

// ParseRef splits a reference into a catalogue key or a stored id.
func ParseRef(ref string) (key string, predefined bool) {
	if k, ok := strings.CutPrefix(ref, PredefinedPrefix); ok {
		return k, true
	}
	return ref, false
}

// Predefined is a read-only template from the built-in catalogue.
type Predefined struct {
	Key         string   `yaml:"key"`
	Title       string   `yaml:"name"`
	SubjectLine string   `yaml:"subject"`
	Body        string   `yaml:"html"`
	Group       string   `yaml:"category"`
	Vars        []string `yaml:"-"`
}

func (p *Predefined) Ref() string { return PredefinedPrefix + p.Key }
func (p *Predefined) Name() string { return p.Title }
func (p *Predefined) Subject() string { return p.SubjectLine }
func (p *Predefined) HTML() string { return p.Body }
func (p *Predefined) Variables() []string { return p.Vars }
func (p *Predefined) Category() string { return p.Group }
func (p *Predefined) Readable(string) bool { return true }
func (p *Predefined) Writable(string) bool { return false }

// Stored wraps a user-owned template row.
type Stored struct {
	*models.EmailTemplate
}

func (s Stored) Ref() string { return s.ID }
func (s Stored) Name() string { return s.EmailTemplate.Name }
func (s Stored) Subject() string { return s.EmailTemplate.Subject }
func (s Stored) HTML() string { return s.EmailTemplate.HTML }
func (s Stored) Variables() []string { return s.EmailTemplate.Variables }
func (s Stored) Category() string { return s.EmailTemplate.Category }

func (s Stored) Readable(userID string) bool {
	return s.UserID == userID || s.IsPublic
}

func (s Stored) Writable(userID string) bool {
	return s.UserID == userID
}

// View is the JSON shape returned for any template.
type View struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Subject    string     `json:"subject"`
	HTML       string     `json:"html"`
	Variables  []string   `json:"variables"`
	Category   string     `json:"category,omitempty"`
	IsPublic   bool       `json:"isPublic"`
	Predefined bool       `json:"isPredefined"`
	Owned      bool       `json:"isOwner"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// ToView maps t to its API representation as seen by userID.
func ToView(t Template, userID string) View {
	v := View{
		ID:        t.Ref(),
		Name:      t.Name(),
		Subject:   t.Subject(),
		HTML:      t.HTML(),
		Variables: t.Variables(),
		Category:  t.Category(),
		Owned:     t.Writable(userID),
	}
	if v.Variables == nil {
		v.Variables = []string{}
	}
	switch tt := t.(type) {
	case *Predefined:
		v.Predefined = true
		v.IsPublic = true
	case Stored:
		v.IsPublic = tt.IsPublic
		v.CreatedAt = &tt.CreatedAt
		v.UpdatedAt = &tt.UpdatedAt
	}
	return v
}
