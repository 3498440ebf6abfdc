package httpapi

import (
	"net/http"
	"time"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/audit"
	"rentflow.app/internal/blob"
)

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getSettings(w, r)
	case http.MethodPut:
		a.updateSettings(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}
	settings, err := a.agents.GetSettings(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) updateSettings(w http.ResponseWriter, r *http.Request) {
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	// Pre-seed defaults so a payload that omits enable_notifications
	// keeps notifications on rather than silently disabling them.
	settings := agent.DefaultSettings()
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := a.agents.UpdateSettings(r.Context(), current.ID, settings)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "agent.settings.updated", nil)
	writeJSON(w, http.StatusOK, saved)
}

func (a *API) handleLogoUpload(w http.ResponseWriter, r *http.Request) {
	a.uploadBrandingImage(w, r, "logo")
}

func (a *API) handleBackgroundUpload(w http.ResponseWriter, r *http.Request) {
	a.uploadBrandingImage(w, r, "background")
}

func (a *API) uploadBrandingImage(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	now := time.Now().UTC()
	var key string
	if kind == "logo" {
		key = blob.LogoKey(current.ID, header.Filename, now)
	} else {
		key = blob.BackgroundKey(current.ID, header.Filename, now)
	}

	url, err := a.blobs.Put(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		handleStorageError(w, r, err)
		return
	}

	if kind == "logo" {
		err = a.agents.SetLogoURL(r.Context(), current.ID, url)
	} else {
		err = a.agents.SetBackgroundImageURL(r.Context(), current.ID, url)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "agent.settings."+kind+".uploaded", nil)
	writeJSON(w, http.StatusOK, map[string]string{kind + "_url": url})
}
