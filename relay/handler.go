package relay

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/terraworkdynamics/skenterprises"
)

// Handler exposes the relay over HTTP for the payment pages.
type Handler struct {
	sender *Sender
	logger auth.Logger
}

// NewHandler builds the HTTP handler around a configured sender.
func NewHandler(sender *Sender, logger auth.Logger) *Handler {
	if logger == nil {
		logger = auth.NewDefaultLogger()
	}
	return &Handler{sender: sender, logger: logger}
}

type sendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendPost handles the payment confirmation POST.
func (h *Handler) SendPost(ctx router.Context) error {
	payload := new(Message)

	if err := ctx.Bind(payload); err != nil {
		h.logger.Error("relay parse payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, sendResult{
			Success: false,
			Error:   "Invalid JSON input",
		})
	}

	receipt, err := h.sender.Send(ctx.Context(), *payload)
	if err != nil {
		status := http.StatusBadRequest
		var rich *goerrors.Error
		if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryOperation {
			status = http.StatusBadGateway
		}
		return ctx.JSON(status, sendResult{
			Success: false,
			Error:   err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, sendResult{
		Success:   true,
		Message:   "WhatsApp message sent successfully",
		MessageID: receipt.MessageID,
	})
}
