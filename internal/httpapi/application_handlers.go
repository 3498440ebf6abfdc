package httpapi

import (
	"net/http"
	"strings"
	"time"

	"rentflow.app/internal/application"
	"rentflow.app/internal/audit"
	"rentflow.app/internal/blob"
	"rentflow.app/internal/obs"
)

type updateApplicationRequest struct {
	Status   *string               `json:"status"`
	BioInfo  *application.BioInfo  `json:"bio_info"`
	OREAForm *application.OREAForm `json:"orea_form"`
	Notes    *string               `json:"notes"`
}

type generateLinkResponse struct {
	LinkID  string `json:"link_id"`
	LinkURL string `json:"url"`
}

type validateLinkResponse struct {
	IsValid bool `json:"isValid"`
}

// handleApplicationsCollection serves /api/v1/applications.
func (a *API) handleApplicationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listApplications(w, r)
	case http.MethodPost:
		a.createApplication(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleApplicationsResource dispatches everything under
// /api/v1/applications/: link operations, anonymous application start,
// and per-application reads, updates and document uploads.
func (a *API) handleApplicationsResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/applications/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case path == "generate-link":
		a.generateLink(w, r)
	case strings.HasPrefix(path, "validate-link/"):
		a.validateLink(w, r, strings.TrimPrefix(path, "validate-link/"))
	case path == "start":
		a.startApplication(w, r)
	case strings.HasSuffix(path, "/documents"):
		id := strings.TrimSuffix(path, "/documents")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.uploadDocument(w, r, id)
	case strings.Contains(path, "/"):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		switch r.Method {
		case http.MethodGet:
			a.getApplication(w, r, path)
		case http.MethodPut:
			a.updateApplication(w, r, path)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}
	}
}

func (a *API) listApplications(w http.ResponseWriter, r *http.Request) {
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	var status *application.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := application.ParseStatus(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		status = &parsed
	}

	apps, err := a.apps.List(r.Context(), current.ID, status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if apps == nil {
		apps = []*application.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

type createApplicationRequest struct {
	LinkID string `json:"link_id"`
}

func (a *API) createApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeJSONOptional(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// A supplied link resolves the owner itself, so the caller stays
	// anonymous. Without one the caller must be an authenticated agent.
	if linkID := strings.TrimSpace(req.LinkID); linkID != "" {
		app, err := a.apps.Start(r.Context(), linkID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "application.create", map[string]any{
			"application_id": app.ID,
			"link_id":        linkID,
		})
		writeJSON(w, http.StatusOK, app)
		return
	}

	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	app, err := a.apps.Create(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "application.create", map[string]any{
		"application_id": app.ID,
	})
	writeJSON(w, http.StatusOK, app)
}

func (a *API) generateLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	link, url, err := a.apps.IssueLink(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "application.link.issued", map[string]any{
		"link_id": link.ID,
	})
	writeJSON(w, http.StatusOK, generateLinkResponse{
		LinkID:  link.ID,
		LinkURL: url,
	})
}

func (a *API) validateLink(w http.ResponseWriter, r *http.Request, linkID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if linkID == "" || strings.Contains(linkID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	valid, err := a.apps.ValidateLink(r.Context(), linkID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateLinkResponse{IsValid: valid})
}

type startApplicationRequest struct {
	LinkID string `json:"link_id"`
}

func (a *API) startApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req startApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.LinkID) == "" {
		writeError(w, r, http.StatusBadRequest, "link_id is required")
		return
	}

	app, err := a.apps.Start(r.Context(), strings.TrimSpace(req.LinkID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "application.started", map[string]any{
		"application_id": app.ID,
		"link_id":        req.LinkID,
	})
	writeJSON(w, http.StatusOK, app)
}

func (a *API) getApplication(w http.ResponseWriter, r *http.Request, id string) {
	current, r, ok := a.optionalAgent(w, r)
	if !ok {
		return
	}
	callerID := ""
	if current != nil {
		callerID = current.ID
	}

	app, err := a.apps.Get(r.Context(), id, callerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (a *API) updateApplication(w http.ResponseWriter, r *http.Request, id string) {
	current, r, ok := a.optionalAgent(w, r)
	if !ok {
		return
	}
	callerID := ""
	if current != nil {
		callerID = current.ID
	}

	var req updateApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	upd := application.Update{
		BioInfo:  req.BioInfo,
		OREAForm: req.OREAForm,
		Notes:    req.Notes,
	}
	if req.Status != nil {
		status, err := application.ParseStatus(*req.Status)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd.Status = &status
	}

	app, err := a.apps.Update(r.Context(), id, upd, callerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "application.updated", map[string]any{
		"application_id": app.ID,
		"status":         string(app.Status),
	})
	writeJSON(w, http.StatusOK, app)
}

func (a *API) uploadDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	current, r, ok := a.optionalAgent(w, r)
	if !ok {
		return
	}
	callerID := ""
	if current != nil {
		callerID = current.ID
	}

	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	docType := strings.TrimSpace(r.FormValue("document_type"))
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// Verify existence and ownership before touching storage.
	if _, err := a.apps.Get(r.Context(), id, callerID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	key := blob.DocumentKey(id, header.Filename, time.Now().UTC())
	url, err := a.blobs.Put(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		handleStorageError(w, r, err)
		return
	}

	app, err := a.apps.AttachDocument(r.Context(), id, docType, url, callerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "application.document.uploaded", map[string]any{
		"application_id": app.ID,
		"document_type":  app.DocumentType,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"document_url": url,
		"status":       string(app.Status),
	})
}

func handleStorageError(w http.ResponseWriter, r *http.Request, err error) {
	obs.LogRequest(map[string]any{
		"level":      "error",
		"msg":        "document upload failed",
		"path":       r.URL.Path,
		"request_id": RequestIDFromContext(r.Context()),
		"error":      err.Error(),
	})
	writeError(w, r, http.StatusInternalServerError, "Failed to upload document")
}
