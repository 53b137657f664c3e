package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stridemate/stridemate-hub/internal/application/command"
	"github.com/stridemate/stridemate-hub/internal/application/query"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
	"github.com/stridemate/stridemate-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	info := map[string]interface{}{
		"name":    "Stridemate API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":            "/health",
			"potential_matches": "/matching/potential-matches",
			"create_match":      "/create-match",
			"recent_matches":    "/recent-matches/{userId}",
			"messages":          "/messages/{matchId}",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness. Dependencies must answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive reports liveness. Always OK while the process serves.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handlePotentialMatches serves the ranked candidate feed.
//
// GET /matching/potential-matches?userId=<id>&limit=<n>
func (s *Server) handlePotentialMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := s.deps.PotentialMatchesHandler.Handle(r.Context(), query.PotentialMatchesQuery{
		UserID: userID,
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Matches)
}

// createMatchRequest is the body of POST /create-match.
type createMatchRequest struct {
	User1ID string `json:"user1Id"`
	User2ID string `json:"user2Id"`
}

// handleCreateMatch creates a match between two runners.
//
// POST /create-match
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.User1ID == "" || req.User2ID == "" {
		writeError(w, http.StatusBadRequest, "user1Id and user2Id are required")
		return
	}

	result, err := s.deps.CreateMatchHandler.Handle(r.Context(), command.CreateMatchCommand{
		User1ID: req.User1ID,
		User2ID: req.User2ID,
	})
	if err != nil {
		var dup *match.DuplicateError
		if errors.As(err, &dup) {
			writeConflict(w, "Match already exists", toMatchResponse(dup.Existing))
			return
		}
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMatchResponse(result.Match))
}

// handleRecentMatches lists a runner's matches from the last day.
//
// GET /recent-matches/{userId}?hours=<n>&limit=<n>
func (s *Server) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	q := query.RecentMatchesQuery{
		UserID: userID,
		Limit:  getQueryParamInt(r, "limit", 0),
	}
	if hours := getQueryParamInt(r, "hours", 0); hours > 0 {
		q.Window = time.Duration(hours) * time.Hour
	}

	result, err := s.deps.RecentMatchesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Matches)
}

// unmatchRequest is the body of POST /matches/{matchId}/unmatch.
type unmatchRequest struct {
	UserID string `json:"userId"`
	Block  bool   `json:"block,omitempty"`
}

// handleUnmatch ends a match.
func (s *Server) handleUnmatch(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("matchId")

	var req unmatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	err := s.deps.UnmatchHandler.Handle(r.Context(), command.UnmatchCommand{
		MatchID:     matchID,
		RequesterID: req.UserID,
		Block:       req.Block,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"matchId": matchID})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHAT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// sendMessageRequest is the body of POST /send-message.
type sendMessageRequest struct {
	MatchID  string `json:"matchId"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

// handleSendMessage stores a chat message.
//
// POST /send-message
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.MatchID == "" || req.SenderID == "" {
		writeError(w, http.StatusBadRequest, "matchId and senderId are required")
		return
	}

	result, err := s.deps.SendMessageHandler.Handle(r.Context(), command.SendMessageCommand{
		MatchID:  req.MatchID,
		SenderID: req.SenderID,
		Content:  req.Content,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	msg := result.Message
	writeJSON(w, http.StatusCreated, query.MessageDTO{
		ID:          msg.ID,
		MatchID:     msg.MatchID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	})
}

// handleListMessages returns a conversation.
//
// GET /messages/{matchId}?readerId=<id>&limit=<n>
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("matchId")

	result, err := s.deps.ListMessagesHandler.Handle(r.Context(), query.ListMessagesQuery{
		MatchID:  matchID,
		ReaderID: r.URL.Query().Get("readerId"),
		Limit:    getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Messages)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// presenceRequest is the body of POST /presence.
type presenceRequest struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// handlePresence records a heartbeat or sign-off.
//
// POST /presence
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	err := s.deps.TrackPresenceHandler.Handle(r.Context(), command.TrackPresenceCommand{
		RunnerID: req.UserID,
		Online:   req.Online,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId": req.UserID,
		"online": req.Online,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE SYNC WEBHOOK
// ══════════════════════════════════════════════════════════════════════════════

// syncUserRequest is the body of POST /sync-user, sent by the auth
// provider on profile changes.
type syncUserRequest struct {
	UserID                string   `json:"userId"`
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	Bio                   string   `json:"bio"`
	PreferredPaceSeconds  *int     `json:"preferredPaceSeconds"`
	PreferredDistance     string   `json:"preferredDistance"`
	Location              string   `json:"location"`
	PreferredRunningTimes []string `json:"preferredRunningTimes"`
}

// syncUserResponse is the upserted profile, shaped for the API.
type syncUserResponse struct {
	ID                    string   `json:"id"`
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	Bio                   string   `json:"bio,omitempty"`
	PreferredPaceSeconds  *int     `json:"preferredPaceSeconds,omitempty"`
	PreferredDistance     string   `json:"preferredDistance,omitempty"`
	Location              string   `json:"location,omitempty"`
	PreferredRunningTimes []string `json:"preferredRunningTimes,omitempty"`
	Created               bool     `json:"created"`
}

// handleSyncUser upserts a runner profile. Protected by the service key
// middleware; only the auth provider should reach this. A sync also
// counts as a heartbeat: the provider calls it on login.
func (s *Server) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	var req syncUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SyncProfileHandler.Handle(r.Context(), command.SyncProfileCommand{
		RunnerID:              req.UserID,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Bio:                   req.Bio,
		PreferredPaceSeconds:  req.PreferredPaceSeconds,
		PreferredDistance:     req.PreferredDistance,
		Location:              req.Location,
		PreferredRunningTimes: req.PreferredRunningTimes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// Best effort: a failed heartbeat must not fail the sync.
	_ = s.deps.TrackPresenceHandler.Handle(r.Context(), command.TrackPresenceCommand{
		RunnerID: req.UserID,
		Online:   true,
	})

	p := result.Profile
	times := make([]string, 0, len(p.PreferredRunningTimes))
	for _, rt := range p.PreferredRunningTimes {
		times = append(times, string(rt))
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, syncUserResponse{
		ID:                    p.ID,
		FirstName:             p.FirstName,
		LastName:              p.LastName,
		Bio:                   p.Bio,
		PreferredPaceSeconds:  p.PreferredPaceSeconds,
		PreferredDistance:     string(p.PreferredDistance),
		Location:              p.Location,
		PreferredRunningTimes: times,
		Created:               result.Created,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// matchResponse shapes a match for the API.
type matchResponse struct {
	ID        string    `json:"id"`
	UserLow   string    `json:"userLow"`
	UserHigh  string    `json:"userHigh"`
	Status    string    `json:"status"`
	MatchedAt time.Time `json:"matchedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toMatchResponse(m *match.Match) matchResponse {
	return matchResponse{
		ID:        m.ID,
		UserLow:   m.UserLow,
		UserHigh:  m.UserHigh,
		Status:    string(m.Status),
		MatchedAt: m.MatchedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// decodeBody decodes a JSON body, answering 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	return true
}

// writeDomainError maps a domain error to an HTTP status.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeError(w, http.StatusBadRequest, userMessage(err))
	case shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, userMessage(err))
	case errors.Is(err, shared.ErrForbidden):
		writeError(w, http.StatusForbidden, userMessage(err))
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrStateTransition):
		writeError(w, http.StatusUnprocessableEntity, userMessage(err))
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// userMessage extracts a presentable message from a domain error. The
// wrapped cause stays in the logs, not the response.
func userMessage(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
