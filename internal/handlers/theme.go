package handlers

import (
	"net/http"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/theme"
)

// ThemeState is the body of /api/theme requests and responses.
type ThemeState struct {
	Dark bool `json:"dark"`
}

// ThemeHandler reads and sets the dark mode flag over JSON.
type ThemeHandler struct {
	logger   *common.Logger
	pref     *theme.Preference
	onChange func()
}

// NewThemeHandler creates a theme handler. onChange runs after every update
// so open pages can be re-rendered; it may be nil.
func NewThemeHandler(logger *common.Logger, pref *theme.Preference, onChange func()) *ThemeHandler {
	return &ThemeHandler{logger: logger, pref: pref, onChange: onChange}
}

// Get handles GET /api/theme.
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ThemeState{Dark: h.pref.Dark()})
}

// Put handles PUT /api/theme. The in-memory flag changes even when it cannot
// be persisted.
func (h *ThemeHandler) Put(w http.ResponseWriter, r *http.Request) {
	var in ThemeState
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.pref.Set(r.Context(), in.Dark); err != nil {
		h.logger.Warn().Err(err).Msg("theme updated but not persisted")
	} else {
		h.logger.Info().Bool("dark", in.Dark).Msg("theme updated")
	}
	if h.onChange != nil {
		h.onChange()
	}
	WriteJSON(w, http.StatusOK, ThemeState{Dark: h.pref.Dark()})
}
