// Package notify delivers agent-facing email notifications for
// application lifecycle events. Delivery is best effort and fully
// decoupled from the request path: failures are logged, never surfaced
// to applicants.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/application"
	"rentflow.app/internal/obs"
)

const defaultTimeout = 5 * time.Second

// Dispatcher implements application.Notifier by composing emails and
// handing them to a Mailer in the background.
type Dispatcher struct {
	agents      agent.Store
	mailer      Mailer
	frontendURL string
	timeout     time.Duration
}

// DispatcherOption configures Dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithTimeout bounds how long one delivery may take.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// NewDispatcher constructs a dispatcher. frontendURL is the public base
// used in deep links back to the dashboard.
func NewDispatcher(agents agent.Store, mailer Mailer, frontendURL string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		agents:      agents,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DocumentUploaded notifies the owning agent that an applicant attached
// a document. Returns immediately; delivery happens in the background.
func (d *Dispatcher) DocumentUploaded(app *application.Application) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.deliverDocumentUploaded(ctx, app); err != nil {
			obs.LogRequest(map[string]any{
				"level":          "error",
				"msg":            "document upload notification failed",
				"application_id": app.ID,
				"agent_id":       app.AgentID,
				"error":          err.Error(),
			})
		}
	}()
}

func (d *Dispatcher) deliverDocumentUploaded(ctx context.Context, app *application.Application) error {
	owner, err := d.agents.Find(ctx, app.AgentID)
	if err != nil {
		return fmt.Errorf("find agent: %w", err)
	}
	if !owner.Settings.EnableNotifications {
		return nil
	}
	to := owner.NotificationAddress()
	if to == "" {
		return nil
	}

	applicant := strings.TrimSpace(app.BioInfo.FirstName + " " + app.BioInfo.LastName)
	if applicant == "" {
		applicant = "An applicant"
	}
	subject := "New Document Uploaded - " + applicant
	body := d.documentUploadedBody(app, applicant)

	if err := d.mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (d *Dispatcher) documentUploadedBody(app *application.Application, applicant string) string {
	uploadedAt := ""
	if app.DocumentUploadedAt != nil {
		uploadedAt = app.DocumentUploadedAt.Format("January 2, 2006 at 3:04 PM MST")
	}
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>New Document Uploaded</h2>")
	fmt.Fprintf(&b, "<p><strong>%s</strong> uploaded a new document to their rental application.</p>", applicant)
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li>Document type: %s</li>", app.DocumentType)
	fmt.Fprintf(&b, "<li>Application ID: %s</li>", app.ID)
	if uploadedAt != "" {
		fmt.Fprintf(&b, "<li>Uploaded: %s</li>", uploadedAt)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, `<p><a href="%s/applications/%s">View the application</a></p>`, d.frontendURL, app.ID)
	b.WriteString("</body></html>")
	return b.String()
}
