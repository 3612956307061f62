package handlers

import (
	"errors"
	"net/http"

	"eduscan-api/i18n"
	"eduscan-api/middleware"
	"eduscan-api/settings"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Load(c.Request.Context()))
}

// UpdateSettings applies the fields present in the body on top of the saved
// settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	current := h.store.Load(c.Request.Context())
	if err := c.ShouldBindJSON(&current); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.store.Save(c.Request.Context(), current)
	if errors.Is(err, settings.ErrUnsupportedLanguage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	middleware.GetSession(c).Language = saved.Language
	c.JSON(http.StatusOK, saved)
}

// Strings returns the label table for ?lang=, falling back to the
// session's language.
func (h *SettingsHandler) Strings(c *gin.Context) {
	lang := c.Query("lang")
	if lang == "" {
		lang = middleware.GetSession(c).Language
	}
	locale := i18n.Parse(lang)
	c.JSON(http.StatusOK, gin.H{
		"language": locale.String(),
		"dir":      locale.Dir(),
		"strings":  i18n.For(locale),
	})
}

type SessionUpdate struct {
	Page     *string `json:"page"`
	Language *string `json:"language" binding:"omitempty,oneof=English Somali Arabic"`
}

func (h *SettingsHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetSession(c))
}

// UpdateSession moves the session to another page or language.
func (h *SettingsHandler) UpdateSession(c *gin.Context) {
	var req SessionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := middleware.GetSession(c)
	if req.Page != nil {
		sess.Page = *req.Page
	}
	if req.Language != nil {
		sess.Language = *req.Language
	}
	c.JSON(http.StatusOK, sess)
}
