package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/lang"
)

// Controller is the part of the application the control endpoints drive.
type Controller interface {
	Status() engine.Status
	Pause()
	Resume()
	SetLanguage(l lang.Language) error
	NextCamera() (int, error)
}

// ControlHandler serves status, pause/resume, language and camera requests.
type ControlHandler struct {
	ctl Controller
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(ctl Controller) *ControlHandler {
	return &ControlHandler{ctl: ctl}
}

type languageOption struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Native string `json:"native"`
}

type languageResponse struct {
	Language  string           `json:"language"`
	Available []languageOption `json:"available"`
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

type cameraResponse struct {
	Device int `json:"device"`
}

// Status handles GET /api/status.
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// Pause handles POST /api/pause.
func (h *ControlHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.ctl.Pause()
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// Resume handles POST /api/resume.
func (h *ControlHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.ctl.Resume()
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// GetLanguage handles GET /api/language.
func (h *ControlHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.languageResponse())
}

// SetLanguage handles PUT /api/language. The body names a language by
// BCP 47 tag or by name.
func (h *ControlHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	l, err := lang.Resolve(req.Language)
	if err != nil {
		if errors.Is(err, lang.ErrUnknown) {
			writeError(w, http.StatusBadRequest, "Unknown language")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ctl.SetLanguage(l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set language")
		return
	}

	writeJSON(w, http.StatusOK, h.languageResponse())
}

// NextCamera handles POST /api/camera/next.
func (h *ControlHandler) NextCamera(w http.ResponseWriter, r *http.Request) {
	device, err := h.ctl.NextCamera()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to switch camera: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cameraResponse{Device: device})
}

func (h *ControlHandler) languageResponse() languageResponse {
	resp := languageResponse{Language: h.ctl.Status().Language}
	for _, l := range lang.Defaults() {
		resp.Available = append(resp.Available, languageOption{
			Tag:    l.Tag.String(),
			Name:   l.Name,
			Native: l.Native(),
		})
	}
	return resp
}
