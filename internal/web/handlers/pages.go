package handlers

import (
	"log"
	"net/http"

	"github.com/Conceptual-Machines/bidrohi/internal/api/middleware"
	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/session"
	"github.com/Conceptual-Machines/bidrohi/internal/web/render"
	"github.com/Conceptual-Machines/bidrohi/internal/web/templates"
	"github.com/gin-gonic/gin"
)

const seedPlaceholder = "যেমন: বল বীর, বল উন্নত মম শির!"

type WebHandler struct {
	cfg   *config.Config
	store *session.Store
}

func NewWebHandler(cfg *config.Config, store *session.Store) *WebHandler {
	return &WebHandler{
		cfg:   cfg,
		store: store,
	}
}

// Home renders the poem page, showing the session's last poem if there is one
func (h *WebHandler) Home(c *gin.Context) {
	data := templates.PageData{
		SeedPlaceholder: seedPlaceholder,
		MinTokens:       generator.MinMaxTokens,
		MaxTokens:       generator.MaxMaxTokens,
		DefaultTokens:   generator.DefaultMaxTokens,
		MinTemperature:  generator.MinTemperature,
		MaxTemperature:  generator.MaxTemperature,
		DefaultTemp:     generator.DefaultTemperature,
		AttributionName: h.cfg.AttributionName,
		AttributionURL:  h.cfg.AttributionURL,
	}

	if id, ok := middleware.GetSessionID(c); ok {
		if sess, found := h.store.Get(id); found {
			if text := sess.Text(); text != "" {
				html, err := render.PoemHTML(text)
				if err != nil {
					log.Printf("Failed to render poem for session %s: %v", id, err)
				} else {
					data.CurrentPoemHTML = html
				}
			}
		}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	component := templates.PoemPage(data)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}
