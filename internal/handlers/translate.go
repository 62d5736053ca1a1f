package handlers

import (
	"net/http"

	"github.com/chatrizz/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Translate returns a best-effort translation of arbitrary text. The
// response always carries usable text; provider failures fall back to the
// original body.
// POST /api/v1/translate
func (h *Handlers) Translate(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var req struct {
		Text       string `json:"text" binding:"required,min=1,max=4000"`
		TargetLang string `json:"target_lang" binding:"required,min=2,max=8"`
		SourceLang string `json:"source_lang,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	translated := h.translator.Translate(c.Request.Context(), req.Text, req.TargetLang, req.SourceLang)

	c.JSON(http.StatusOK, gin.H{
		"text":        translated,
		"target_lang": req.TargetLang,
		"translated":  translated != req.Text,
	})
}
