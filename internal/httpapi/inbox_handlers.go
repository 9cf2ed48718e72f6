package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/store"
)

type InboxHandler struct {
	DB *sql.DB
}

type deleteMessagesRequest struct {
	MessageIDs []string `json:"message_id"`
}

// Overview handles GET/DELETE /inbox: the whole inbox, with bulk delete.
func (h InboxHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())
	if _, err := store.GetUser(r.Context(), h.DB, userID); err != nil {
		fieldError(w, 400, "Invalid user id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		messages, err := store.MessagesFor(r.Context(), h.DB, userID)
		if err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		if messages == nil {
			messages = []domain.Message{}
		}
		writeJSON(w, messages)
	case http.MethodDelete:
		var req deleteMessagesRequest
		if err := decodeBody(r, &req); err != nil || len(req.MessageIDs) == 0 {
			fieldError(w, 400, "Messages must be selected")
			return
		}
		if err := store.DeleteMessages(r.Context(), h.DB, userID, req.MessageIDs); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Message handles GET/DELETE /inbox/{id}.
func (h InboxHandler) Message(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())
	if _, err := store.GetUser(r.Context(), h.DB, userID); err != nil {
		fieldError(w, 400, "Invalid user id")
		return
	}

	id := pathTail(r.URL.Path, "/inbox/")

	switch r.Method {
	case http.MethodGet:
		msg, err := store.GetMessage(r.Context(), h.DB, id)
		if errors.Is(err, store.ErrNotFound) {
			fieldError(w, 400, "Invalid message")
			return
		}
		if err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		if msg.RecipientID != userID {
			WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		writeJSON(w, msg)
	case http.MethodDelete:
		if err := store.DeleteMessages(r.Context(), h.DB, userID, []string{id}); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
