package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/relay"
	"github.com/nulzo/ai-gateway/internal/server/validator"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

type AIHandler struct {
	service ports.GatewayService
	logger  *zap.Logger
}

func NewAIHandler(service ports.GatewayService, logger *zap.Logger) *AIHandler {
	return &AIHandler{service: service, logger: logger}
}

// Handle serves every gateway action. Streaming rolls down into SSE; all
// other actions answer with the JSON envelope.
func (h *AIHandler) Handle(c *gin.Context) {
	var req schema.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errMap := validator.ParseValidationError(err)
		_ = c.Error(domain.ErrBadRequest(validator.Describe(errMap)))
		return
	}

	if req.Action == schema.ActionStream {
		h.handleStream(c, &req)
		return
	}

	resp := h.service.Dispatch(c.Request.Context(), &req)
	c.JSON(resp.Status, resp)
}

func (h *AIHandler) handleStream(c *gin.Context, req *schema.Request) {
	streamChan, model, err := h.service.DispatchStream(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	if err := relay.Forward(c.Request.Context(), streamChan, model, c.Writer, c.Writer.Flush); err != nil {
		// the terminal frame already went out; nothing left to write
		h.logger.Warn("Stream ended with error",
			zap.String("model", model.Key),
			zap.Error(err),
		)
	}
}
