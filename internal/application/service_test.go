package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestService(opts ...Option) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, "https://rentflow.example", opts...), store
}

func startedApplication(t *testing.T, svc *Service) *Application {
	t.Helper()
	link, _, err := svc.IssueLink(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}
	app, err := svc.Start(context.Background(), link.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return app
}

func TestIssueLinkComposesPublicURL(t *testing.T) {
	svc, _ := newTestService()

	link, url, err := svc.IssueLink(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}
	if link.AgentID != "agent-1" || !link.IsActive {
		t.Fatalf("unexpected link: %+v", link)
	}
	if want := "https://rentflow.example/apply/" + link.ID; url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}
}

func TestStartCreatesDraftWithInvariants(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	if app.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", app.Status)
	}
	if app.AgentID != "agent-1" {
		t.Fatalf("agent = %q, want agent-1", app.AgentID)
	}
	if app.Documents == nil || len(app.Documents) != 0 {
		t.Fatalf("documents = %#v, want empty non-nil slice", app.Documents)
	}
	if app.BioSubmittedAt != nil || app.DocumentUploadedAt != nil {
		t.Fatal("fresh draft should carry no milestone timestamps")
	}
}

func TestStartRejectsUnknownAndInactiveLinks(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Start(context.Background(), "no-such-link"); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("unknown link err = %v, want ErrInvalidLink", err)
	}

	link, _, err := svc.IssueLink(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}
	if err := svc.DeactivateLink(context.Background(), link.ID); err != nil {
		t.Fatalf("DeactivateLink: %v", err)
	}
	if _, err := svc.Start(context.Background(), link.ID); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("inactive link err = %v, want ErrInvalidLink", err)
	}
}

func TestStartFallsBackToLinkIDWhenUnattributed(t *testing.T) {
	svc, store := newTestService()

	orphan := &Link{ID: "orphan-link", IsActive: true, CreatedAt: time.Now()}
	if err := store.InsertLink(context.Background(), orphan); err != nil {
		t.Fatalf("InsertLink: %v", err)
	}

	app, err := svc.Start(context.Background(), "orphan-link")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if app.AgentID != "orphan-link" {
		t.Fatalf("agent = %q, want the link id", app.AgentID)
	}
}

func TestValidateLink(t *testing.T) {
	svc, _ := newTestService()
	link, _, err := svc.IssueLink(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}

	ok, err := svc.ValidateLink(context.Background(), link.ID)
	if err != nil || !ok {
		t.Fatalf("active link: ok=%v err=%v", ok, err)
	}

	ok, err = svc.ValidateLink(context.Background(), "no-such-link")
	if err != nil || ok {
		t.Fatalf("unknown link: ok=%v err=%v", ok, err)
	}

	if err := svc.DeactivateLink(context.Background(), link.ID); err != nil {
		t.Fatalf("DeactivateLink: %v", err)
	}
	ok, err = svc.ValidateLink(context.Background(), link.ID)
	if err != nil || ok {
		t.Fatalf("deactivated link: ok=%v err=%v", ok, err)
	}
}

func TestGetEnforcesOwnershipWithoutLeaking(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	if _, err := svc.Get(context.Background(), app.ID, "agent-1"); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(context.Background(), app.ID, ""); err != nil {
		t.Fatalf("anonymous Get: %v", err)
	}
	if _, err := svc.Get(context.Background(), app.ID, "agent-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign Get err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStampsBioSubmittedAtOnce(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	updated, err := svc.Update(context.Background(), app.ID, Update{
		BioInfo: &BioInfo{FirstName: "Jamie", LastName: "Ng"},
	}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.BioSubmittedAt == nil {
		t.Fatal("first bio update should stamp bio_submitted_at")
	}
	first := *updated.BioSubmittedAt

	time.Sleep(5 * time.Millisecond)
	updated, err = svc.Update(context.Background(), app.ID, Update{
		BioInfo: &BioInfo{FirstName: "Jamie", LastName: "Ng", Bio: "Quiet tenant."},
	}, "")
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if updated.BioInfo.Bio != "Quiet tenant." {
		t.Fatalf("bio not updated: %+v", updated.BioInfo)
	}
	if !updated.BioSubmittedAt.Equal(first) {
		t.Fatalf("bio_submitted_at changed on second update: %v vs %v", updated.BioSubmittedAt, first)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, _ := newTestService()

	set := func(t *testing.T, id string, status Status) error {
		t.Helper()
		_, err := svc.Update(context.Background(), id, Update{Status: &status}, "")
		return err
	}

	app := startedApplication(t, svc)
	if err := set(t, app.ID, StatusSubmitted); err != nil {
		t.Fatalf("draft->submitted: %v", err)
	}
	if err := set(t, app.ID, StatusSubmitted); err != nil {
		t.Fatalf("submitted->submitted no-op: %v", err)
	}
	if err := set(t, app.ID, StatusDraft); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submitted->draft err = %v, want ErrInvalidTransition", err)
	}
	if err := set(t, app.ID, StatusApproved); err != nil {
		t.Fatalf("submitted->approved: %v", err)
	}
	if err := set(t, app.ID, StatusRejected); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approved->rejected err = %v, want ErrInvalidTransition", err)
	}

	other := startedApplication(t, svc)
	if err := set(t, other.ID, Status("archived")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status err = %v, want ErrInvalidInput", err)
	}
}

func TestAttachDocumentForcesReview(t *testing.T) {
	for _, from := range []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected} {
		t.Run(string(from), func(t *testing.T) {
			svc, _ := newTestService()
			app := startedApplication(t, svc)
			if from != StatusDraft {
				status := from
				if _, err := svc.Update(context.Background(), app.ID, Update{Status: &status}, ""); err != nil {
					t.Fatalf("seed status %s: %v", from, err)
				}
			}

			got, err := svc.AttachDocument(context.Background(), app.ID, "pay_stub", "https://cdn.example/doc.pdf", "")
			if err != nil {
				t.Fatalf("AttachDocument: %v", err)
			}
			if got.Status != StatusInReview {
				t.Fatalf("status = %s, want in_review", got.Status)
			}
			if got.DocumentUploadedAt == nil {
				t.Fatal("document_uploaded_at not stamped")
			}
			if got.DocumentType != "pay_stub" || got.DocumentURL != "https://cdn.example/doc.pdf" {
				t.Fatalf("mirror fields not refreshed: %+v", got)
			}
			if len(got.Documents) != 1 {
				t.Fatalf("documents = %d, want 1", len(got.Documents))
			}
		})
	}
}

func TestAttachDocumentValidatesInput(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	if _, err := svc.AttachDocument(context.Background(), app.ID, "pay_stub", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty url err = %v, want ErrInvalidInput", err)
	}
}

func TestAttachDocumentDefaultsTypeToUnknown(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	got, err := svc.AttachDocument(context.Background(), app.ID, "  ", "https://cdn.example/doc.pdf", "")
	if err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	if got.DocumentType != "Unknown" {
		t.Fatalf("document type = %q, want Unknown", got.DocumentType)
	}
	if len(got.Documents) != 1 || got.Documents[0].Type != "Unknown" {
		t.Fatalf("stored document not defaulted: %+v", got.Documents)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []*Application
}

func (n *recordingNotifier) DocumentUploaded(app *Application) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, app)
}

func TestAttachDocumentNotifiesOwner(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(WithNotifier(notifier))
	app := startedApplication(t, svc)

	if _, err := svc.AttachDocument(context.Background(), app.ID, "id_card", "https://cdn.example/id.png", ""); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 {
		t.Fatalf("events = %d, want 1", len(notifier.events))
	}
	if notifier.events[0].ID != app.ID {
		t.Fatalf("notified wrong application: %q", notifier.events[0].ID)
	}
}

func TestConcurrentAttachesKeepEveryDocument(t *testing.T) {
	svc, _ := newTestService()
	app := startedApplication(t, svc)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://cdn.example/doc-%d.pdf", i)
			if _, err := svc.AttachDocument(context.Background(), app.ID, "pay_stub", url, ""); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AttachDocument: %v", err)
	}

	got, err := svc.Get(context.Background(), app.ID, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Documents) != n {
		t.Fatalf("documents = %d, want %d", len(got.Documents), n)
	}
	if got.Status != StatusInReview {
		t.Fatalf("status = %s, want in_review", got.Status)
	}
}

func TestListNewestFirstWithStatusFilter(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc, _ := newTestService(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	link, _, err := svc.IssueLink(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}
	var created []*Application
	for i := 0; i < 3; i++ {
		app, err := svc.Start(context.Background(), link.ID)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		created = append(created, app)
	}
	submitted := StatusSubmitted
	if _, err := svc.Update(context.Background(), created[1].ID, Update{Status: &submitted}, "agent-1"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := svc.List(context.Background(), "agent-1", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != created[2].ID {
		t.Fatalf("expected newest first, got %q", all[0].ID)
	}

	filtered, err := svc.List(context.Background(), "agent-1", &submitted)
	if err != nil {
		t.Fatalf("List(submitted): %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != created[1].ID {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}
}
