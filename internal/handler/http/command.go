package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
	"github.com/Lava-10/knowMoreQR/pkg/httputil"
	"github.com/Lava-10/knowMoreQR/pkg/middleware"
	"github.com/Lava-10/knowMoreQR/pkg/validator"
)

// CommandResolver resolves natural-language wishlist commands.
type CommandResolver interface {
	Resolve(ctx context.Context, userID int64, text string) (*domain.CommandResult, error)
}

// CommandHandler handles HTTP requests for natural-language commands.
type CommandHandler struct {
	resolver CommandResolver
	logger   *slog.Logger
}

// NewCommandHandler creates a new command HTTP handler.
func NewCommandHandler(resolver CommandResolver, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// --- Request DTOs ---

// CommandRequest is the JSON request body for a wishlist command. Older
// clients send the text as "text".
type CommandRequest struct {
	Command string `json:"command" validate:"max=1000"`
	Text    string `json:"text" validate:"max=1000"`
}

func (r CommandRequest) text() string {
	if strings.TrimSpace(r.Command) != "" {
		return r.Command
	}
	return r.Text
}

// --- Handlers ---

// Resolve handles POST /api/v1/wishlist/commands and POST /api/nlp-wishlist.
// Business outcomes, including unrecognised commands and upstream failures,
// are answered with 200 and success=false.
func (h *CommandHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req CommandRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	if strings.TrimSpace(req.text()) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("command is required"), h.logger)
		return
	}

	result, err := h.resolver.Resolve(r.Context(), userID, req.text())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// userIDFromRequest returns the authenticated numeric user id.
func userIDFromRequest(r *http.Request) (int64, error) {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Unauthorized("authentication required")
	}
	return id, nil
}
