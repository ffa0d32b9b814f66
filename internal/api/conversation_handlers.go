package api

import (
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
	"github.com/olugbengaakindele/handyhubclean/internal/db"
	"github.com/olugbengaakindele/handyhubclean/internal/messaging"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// bubbleTemplate renders the HTML partial the chat frontend appends after a
// successful send.
var bubbleTemplate = template.Must(template.New("bubble").Parse(strings.TrimSpace(`
<div class="message-bubble{{if .Mine}} mine{{end}}" data-message-id="{{.Msg.ID}}">
  {{- if .Msg.Attachment}}
  <a href="{{.Msg.Attachment.URL}}" target="_blank"><img class="chat-image" src="{{.Msg.Attachment.URL}}" alt="attachment"></a>
  {{- end}}
  {{- if .Msg.Content}}
  <p>{{.Msg.Content}}</p>
  {{- end}}
  <span class="timestamp">{{.Msg.CreatedAt.Format "Jan 2, 3:04 PM"}}</span>
</div>`)))

func renderBubble(msg models.Message, viewerID int64) string {
	var sb strings.Builder
	err := bubbleTemplate.Execute(&sb, struct {
		Msg  models.Message
		Mine bool
	}{Msg: msg, Mine: msg.SenderID == viewerID})
	if err != nil {
		log.WithError(err).WithField("message_id", msg.ID).Error("Failed to render message bubble.")
		return ""
	}
	return sb.String()
}

func conversationIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	return id, err == nil
}

// StartConversation creates or fetches the conversation with the target user
// and returns its id for the frontend to navigate to.
func (a *API) StartConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	targetID, err := strconv.ParseInt(chi.URLParam(r, "targetUserID"), 10, 64)
	if err != nil {
		writeNotFound(w)
		return
	}

	conv, err := a.Msg.Start(user.ID, targetID)
	if handleMessagingError(w, err) {
		return
	}
	writeChatJSON(w, http.StatusOK, chatResponse{OK: true, Data: map[string]interface{}{
		"conversation_id": conv.ID,
	}})
}

// conversationDetailResponse is the payload of the conversation view.
type conversationDetailResponse struct {
	Conversation models.Conversation `json:"conversation"`
	OtherParty   models.UserProfile  `json:"other_party"`
	Messages     []models.Message    `json:"messages"`
	LastID       int64               `json:"last_id"`
}

// GetConversationDetail loads the conversation view. Opening the view marks
// every message from the other party as read; that is the only place the
// read transition happens.
func (a *API) GetConversationDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	convID, ok := conversationIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}

	conv, _, err := a.Msg.ResolveParticipant(convID, user.ID)
	if handleMessagingError(w, err) {
		return
	}

	if err := a.Msg.MarkReadUpTo(convID, user.ID); handleMessagingError(w, err) {
		return
	}

	messages, err := a.Msg.List(convID, user.ID, 0)
	if handleMessagingError(w, err) {
		return
	}

	var lastID int64
	if len(messages) > 0 {
		lastID = messages[len(messages)-1].ID
	}

	otherProfile, err := db.GetUserProfile(conv.OtherParty(user.ID))
	if err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("Failed to load other party profile.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSONSuccess(w, "", conversationDetailResponse{
		Conversation: conv,
		OtherParty:   otherProfile,
		Messages:     messages,
		LastID:       lastID,
	})
}

// SendMessage appends a message (multipart: content + optional image) and
// returns the rendered bubble for the sender's UI.
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	convID, ok := conversationIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeFieldErrors(w, "content", "Could not parse the form.")
		return
	}

	content := r.FormValue("content")

	var upload *messaging.ImageUpload
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()

		// Read one byte past the ceiling so an oversized stream is
		// rejected by the validator instead of silently truncated.
		data, errRead := io.ReadAll(io.LimitReader(file, constants.MAX_IMAGE_BYTES+1))
		if errRead != nil {
			writeFieldErrors(w, "image", "Could not read the uploaded image.")
			return
		}
		upload = &messaging.ImageUpload{
			Filename:     header.Filename,
			DeclaredMIME: header.Header.Get("Content-Type"),
			Data:         data,
		}
	}

	msg, err := a.Msg.Append(convID, user.ID, content, upload)
	if handleMessagingError(w, err) {
		return
	}

	writeChatJSON(w, http.StatusOK, chatResponse{
		OK:        true,
		MessageID: msg.ID,
		HTML:      renderBubble(msg, user.ID),
	})
}

// PollMessages returns messages newer than since_id. Strictly read-only: the
// write path exists only on /send.
func (a *API) PollMessages(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	convID, ok := conversationIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}

	sinceID, _ := strconv.ParseInt(r.URL.Query().Get("since_id"), 10, 64)
	if sinceID < 0 {
		sinceID = 0
	}

	messages, err := a.Msg.List(convID, user.ID, sinceID)
	if handleMessagingError(w, err) {
		return
	}

	lastID := sinceID
	bubbles := make([]string, 0, len(messages))
	for _, msg := range messages {
		bubbles = append(bubbles, renderBubble(msg, user.ID))
		lastID = msg.ID
	}

	writeChatJSON(w, http.StatusOK, chatResponse{OK: true, Data: map[string]interface{}{
		"messages": messages,
		"html":     bubbles,
		"last_id":  lastID,
	}})
}

// ServeMedia streams attachment bytes to conversation participants only.
// Everyone else sees the same not-found as for a missing file.
func (a *API) ServeMedia(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	convID, ok := conversationIDParam(r)
	if !ok {
		writeNotFound(w)
		return
	}
	if _, _, err := a.Msg.ResolveParticipant(convID, user.ID); err != nil {
		writeNotFound(w)
		return
	}

	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		writeNotFound(w)
		return
	}

	path, err := a.Blobs.Open("chat/" + convID.String() + "/" + filename)
	if err != nil {
		writeNotFound(w)
		return
	}
	http.ServeFile(w, r, path)
}
