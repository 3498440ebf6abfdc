package application

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a rental application.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// statusRank orders the lifecycle for forward-only transition checks.
// Approved and rejected share a rank: both are terminal outcomes and
// neither may turn into the other.
var statusRank = map[Status]int{
	StatusDraft:     0,
	StatusSubmitted: 1,
	StatusInReview:  2,
	StatusApproved:  3,
	StatusRejected:  3,
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Transitions only move forward; re-asserting the current status is a
// no-op and allowed, but approved and rejected never swap.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if statusRank[s] == statusRank[next] {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// BioInfo is the applicant-facing portion of an application. It is
// always present on the wire, even when empty.
type BioInfo struct {
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Bio          string            `json:"bio,omitempty"`
	MoveInDate   *time.Time        `json:"move_in_date,omitempty"`
	ProfileImage string            `json:"profile_image,omitempty"`
	Prompts      map[string]string `json:"prompts,omitempty"`
}

// OREAForm holds the structured rental form data and any generated
// documents attached to it.
type OREAForm struct {
	FormData    map[string]any `json:"form_data,omitempty"`
	SignedURL   string         `json:"signed_url,omitempty"`
	UploadedURL string         `json:"uploaded_url,omitempty"`
}

// Document is one supporting file attached to an application.
type Document struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Application is a rental application owned by an agent.
type Application struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	Status  Status `json:"status"`

	BioInfo   BioInfo    `json:"bio_info"`
	OREAForm  *OREAForm  `json:"orea_form,omitempty"`
	Documents []Document `json:"documents"`
	Notes     string     `json:"notes,omitempty"`

	// DocumentType and DocumentURL mirror the most recent attachment so
	// list views can show it without unpacking the documents array.
	DocumentType string `json:"document_type,omitempty"`
	DocumentURL  string `json:"document_url,omitempty"`

	BioSubmittedAt     *time.Time `json:"bio_submitted_at,omitempty"`
	DocumentUploadedAt *time.Time `json:"document_uploaded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplication builds a draft application with an empty bio and an
// empty, non-nil document list.
func NewApplication(id, agentID string, now time.Time) *Application {
	return &Application{
		ID:        id,
		AgentID:   agentID,
		Status:    StatusDraft,
		BioInfo:   BioInfo{},
		Documents: []Document{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand across store boundaries.
func (a *Application) Clone() *Application {
	clone := *a
	clone.Documents = make([]Document, len(a.Documents))
	copy(clone.Documents, a.Documents)
	if a.BioInfo.Prompts != nil {
		clone.BioInfo.Prompts = make(map[string]string, len(a.BioInfo.Prompts))
		for k, v := range a.BioInfo.Prompts {
			clone.BioInfo.Prompts[k] = v
		}
	}
	if a.BioInfo.MoveInDate != nil {
		d := *a.BioInfo.MoveInDate
		clone.BioInfo.MoveInDate = &d
	}
	if a.OREAForm != nil {
		form := *a.OREAForm
		if a.OREAForm.FormData != nil {
			form.FormData = make(map[string]any, len(a.OREAForm.FormData))
			for k, v := range a.OREAForm.FormData {
				form.FormData[k] = v
			}
		}
		clone.OREAForm = &form
	}
	if a.BioSubmittedAt != nil {
		ts := *a.BioSubmittedAt
		clone.BioSubmittedAt = &ts
	}
	if a.DocumentUploadedAt != nil {
		ts := *a.DocumentUploadedAt
		clone.DocumentUploadedAt = &ts
	}
	return &clone
}

// Update is a partial application update. Nil fields are left untouched.
type Update struct {
	Status   *Status
	BioInfo  *BioInfo
	OREAForm *OREAForm
	Notes    *string
}

// Empty reports whether the update carries no changes.
func (u Update) Empty() bool {
	return u.Status == nil && u.BioInfo == nil && u.OREAForm == nil && u.Notes == nil
}

// Link is a shareable application link issued by an agent.
type Link struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
