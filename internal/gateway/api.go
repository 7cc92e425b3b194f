// ABOUTME: HTTP API handlers for the telegate endpoints.
// ABOUTME: Decodes requests, runs the resolve/fetch pipeline, writes normalized JSON.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lanternworks/telegate/internal/chat"
	"github.com/lanternworks/telegate/internal/normalize"
	"github.com/lanternworks/telegate/internal/telegram"
)

// ChatMessagesRequest is the body of POST /get-chat-messages. TargetID is
// kept raw so the response can echo it exactly as sent, string or number.
type ChatMessagesRequest struct {
	TargetID json.RawMessage `json:"targetId"`
	Keyword  string          `json:"keyword"`
	Limit    int             `json:"limit"`
}

// ChatMessagesResponse is the body of a successful message fetch.
type ChatMessagesResponse struct {
	Keyword  string              `json:"keyword"`
	TargetID json.RawMessage     `json:"targetId"`
	Messages []normalize.Message `json:"messages"`
}

// SearchEntitiesRequest is the body of POST /search-entities.
type SearchEntitiesRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

// EntityResult is one dialog matched by a search.
type EntityResult struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind"`
	IsPublic bool   `json:"isPublic"`
	Link     string `json:"link,omitempty"`
}

// MembersRequest is the body of POST /get-members.
type MembersRequest struct {
	TargetID json.RawMessage `json:"targetId"`
	Limit    int             `json:"limit"`
}

// MemberResult is one participant of a group or channel.
type MemberResult struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status"`
	IsBot     bool   `json:"isBot"`
}

// rawTargetString converts a raw JSON target into the string the pipeline
// classifies. JSON strings and numbers are accepted; anything else is not
// a target.
func rawTargetString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: targetId must be a string or number", chat.ErrInvalidTarget)
}

// handleHome reports service identity and live connection status.
func (g *Gateway) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := "telegram_disconnected"
	if g.manager.State() == telegram.StateConnected {
		status = "telegram_connected"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "telegate is running",
		"status":  status,
	})
}

// handleHealth is the liveness probe.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleChatMessages resolves a target, fetches a bounded message window
// and returns it normalized. The request's targetId is echoed verbatim.
func (g *Gateway) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TargetID) == 0 {
		sendJSONError(w, http.StatusBadRequest, "targetId is required")
		return
	}

	rawTarget, err := rawTargetString(req.TargetID)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}
	target, err := chat.ParseTarget(rawTarget)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	requestID := uuid.NewString()
	logger := g.logger.With("request_id", requestID, "target", target.String())
	logger.Info("chat messages requested", "keyword", req.Keyword, "limit", req.Limit)

	client, err := g.manager.Acquire(r.Context())
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	entity, err := g.resolver.Resolve(r.Context(), client, target)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	limit := req.Limit
	if limit > g.config.Fetch.MaxLimit {
		limit = g.config.Fetch.MaxLimit
	}
	if limit <= 0 {
		limit = g.config.Fetch.DefaultLimit
	}
	raw, err := g.fetcher.Fetch(r.Context(), client, chat.Query{
		Entity:  entity,
		Keyword: strings.TrimSpace(req.Keyword),
		Limit:   limit,
	})
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	messages := make([]normalize.Message, 0, len(raw))
	for _, m := range raw {
		messages = append(messages, normalize.Normalize(m, entity))
	}
	logger.Info("chat messages returned", "count", len(messages))

	writeJSON(w, http.StatusOK, ChatMessagesResponse{
		Keyword:  req.Keyword,
		TargetID: req.TargetID,
		Messages: messages,
	})
}

// handleSearchEntities searches the session's dialog list by keyword.
func (g *Gateway) handleSearchEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SearchEntitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		sendJSONError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	client, err := g.manager.Acquire(r.Context())
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	dialogs, err := client.SearchDialogs(r.Context(), req.Keyword, limit)
	if err != nil {
		g.sendMappedError(w, fmt.Errorf("%w: %v", chat.ErrFetch, err))
		return
	}

	results := make([]EntityResult, 0, len(dialogs))
	for _, d := range dialogs {
		res := EntityResult{
			ID:       d.ID,
			Title:    d.Title,
			Username: d.Username,
			Kind:     string(d.Kind),
			IsPublic: d.IsPublic,
		}
		if d.Username != "" {
			res.Link = "https://t.me/" + d.Username
		}
		results = append(results, res)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keyword":  req.Keyword,
		"entities": results,
	})
}

// handleMembers lists recent participants of a group or channel.
func (g *Gateway) handleMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req MembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TargetID) == 0 {
		sendJSONError(w, http.StatusBadRequest, "targetId is required")
		return
	}
	rawTarget, err := rawTargetString(req.TargetID)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}
	target, err := chat.ParseTarget(rawTarget)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	client, err := g.manager.Acquire(r.Context())
	if err != nil {
		g.sendMappedError(w, err)
		return
	}
	entity, err := g.resolver.Resolve(r.Context(), client, target)
	if err != nil {
		g.sendMappedError(w, err)
		return
	}

	members, err := client.Participants(r.Context(), entity, limit)
	if err != nil {
		if errors.Is(err, telegram.ErrNoMemberList) {
			sendJSONError(w, http.StatusBadRequest, "target has no member list")
			return
		}
		g.sendMappedError(w, fmt.Errorf("%w: %v", chat.ErrFetch, err))
		return
	}

	results := make([]MemberResult, 0, len(members))
	for _, m := range members {
		results = append(results, MemberResult{
			ID:        m.ID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Username:  m.Username,
			Phone:     m.Phone,
			Status:    m.Status,
			IsBot:     m.IsBot,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"targetId": req.TargetID,
		"members":  results,
	})
}

// handleDouyin is a stub kept for callers of the old deployment. It always
// rejects: this service talks to Telegram only.
func (g *Gateway) handleDouyin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sendJSONError(w, http.StatusBadRequest, "douyin scraping is not supported")
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}
