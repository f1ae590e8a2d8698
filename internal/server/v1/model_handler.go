package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
)

type ModelHandler struct {
	service ports.GatewayService
}

func NewModelHandler(service ports.GatewayService) *ModelHandler {
	return &ModelHandler{service: service}
}

// modelView is the public shape of a registry entry. Provider detail is
// reduced to its key; credential configuration never appears here.
type modelView struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	Provider      string   `json:"provider"`
	Capabilities  []string `json:"capabilities"`
	ContextWindow int      `json:"context_window,omitempty"`
	MaxOutput     int      `json:"max_output,omitempty"`
	PriceInput    float64  `json:"price_input,omitempty"`
	PriceOutput   float64  `json:"price_output,omitempty"`
	Default       bool     `json:"default,omitempty"`
}

func toView(m *domain.ModelDescriptor) modelView {
	caps := make([]string, len(m.Capabilities))
	for i, c := range m.Capabilities {
		caps[i] = string(c)
	}
	return modelView{
		Key:           m.Key,
		Name:          m.Name,
		Provider:      m.ProviderKey(),
		Capabilities:  caps,
		ContextWindow: m.ContextWindow,
		MaxOutput:     m.MaxOutput,
		PriceInput:    m.PriceInput,
		PriceOutput:   m.PriceOutput,
		Default:       m.Default,
	}
}

func (h *ModelHandler) ListModels(c *gin.Context) {
	filter := ports.ModelFilter{
		Provider:   c.Query("provider"),
		Capability: c.Query("capability"),
	}

	models, err := h.service.ListModels(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views := make([]modelView, 0, len(models))
	for _, m := range models {
		views = append(views, toView(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
	})
}

func (h *ModelHandler) ReloadModels(c *gin.Context) {
	if err := h.service.ReloadModels(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
