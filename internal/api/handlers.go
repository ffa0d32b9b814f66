package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olugbengaakindele/handyhubclean/internal/config"
	"github.com/olugbengaakindele/handyhubclean/internal/messaging"
	"github.com/olugbengaakindele/handyhubclean/internal/session"
	"github.com/olugbengaakindele/handyhubclean/internal/storage"
)

// API bundles the dependencies every handler needs.
type API struct {
	Config   *config.Config
	Sessions *session.Manager
	Msg      *messaging.Service
	Blobs    *storage.DiskStore
}

// jsonResponse is the standard envelope for non-chat endpoints.
type jsonResponse struct {
	Status  string      `json:"status"` // "success" or "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

// chatResponse matches the contract the chat frontend polls against:
// {ok:true, ...} on success, {ok:false, errors:{field:[...]}} on validation
// failure.
type chatResponse struct {
	OK        bool                `json:"ok"`
	MessageID int64               `json:"message_id,omitempty"`
	HTML      string              `json:"html,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Data      interface{}         `json:"data,omitempty"`
}

func writeChatJSON(w http.ResponseWriter, statusCode int, resp chatResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeFieldErrors(w http.ResponseWriter, field, message string) {
	writeChatJSON(w, http.StatusBadRequest, chatResponse{
		OK:     false,
		Errors: map[string][]string{field: {message}},
	})
}

// writeNotFound is deliberately generic: non-participants get the same body
// as requests for conversations that never existed.
func writeNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, "Not found")
}

// handleMessagingError maps the messaging core's sentinel errors onto the
// HTTP surface. Returns true when the error was handled.
func handleMessagingError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, messaging.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, messaging.ErrSelfConversation):
		writeFieldErrors(w, "target", "You cannot message yourself.")
	case errors.Is(err, messaging.ErrEmptyMessage):
		writeFieldErrors(w, "content", "Type a message or attach an image.")
	case errors.Is(err, messaging.ErrImageTooLarge):
		writeFieldErrors(w, "image", "Image too large. Max is 5MB.")
	case errors.Is(err, messaging.ErrUnsupportedImageType):
		writeFieldErrors(w, "image", "Only JPG, PNG, or WEBP images are allowed.")
	case errors.Is(err, messaging.ErrInvalidImage):
		writeFieldErrors(w, "image", "Invalid image file.")
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
	return true
}
