package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/exiletally/deck-tracker/backend/internal/models"
	"github.com/exiletally/deck-tracker/backend/internal/services"
	"github.com/exiletally/deck-tracker/backend/internal/store"
	"github.com/exiletally/deck-tracker/backend/internal/valuation"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type SessionHandler struct {
	resolver  *valuation.Resolver
	store     *store.Store
	summaries *services.SummaryService
}

func NewSessionHandler(resolver *valuation.Resolver, st *store.Store, summaries *services.SummaryService) *SessionHandler {
	return &SessionHandler{
		resolver:  resolver,
		store:     st,
		summaries: summaries,
	}
}

// pageParams converts 1-based page/pageSize query params to limit/offset.
func pageParams(c *gin.Context) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}

func sessionPage(sessions []models.SessionSummary, total int64, page, pageSize int) models.SessionPage {
	return models.SessionPage{
		Sessions:   sessions,
		Total:      int(total),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}
}

// ListSessions returns one page of resolved session summaries for a game,
// most recent first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	game := models.Game(c.Query("game"))
	if game == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'game' is required"})
		return
	}
	page, pageSize, offset := pageParams(c)

	total, err := h.resolver.CountSessions(c.Request.Context(), game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.resolver.ListSessions(c.Request.Context(), game, pageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sessionPage(sessions, total, page, pageSize))
}

// SearchSessions returns sessions having at least one card whose name
// contains the given substring, in the same page shape as ListSessions.
func (h *SessionHandler) SearchSessions(c *gin.Context) {
	game := models.Game(c.Query("game"))
	card := c.Query("card")
	if game == "" || card == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameters 'game' and 'card' are required"})
		return
	}
	page, pageSize, offset := pageParams(c)

	total, err := h.resolver.CountSessionsByCardName(c.Request.Context(), game, card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.resolver.SearchSessionsByCardName(c.Request.Context(), game, card, pageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sessionPage(sessions, total, page, pageSize))
}

// GetSession returns the raw session fields with the resolved league name.
func (h *SessionHandler) GetSession(c *gin.Context) {
	info, err := h.resolver.SessionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetSessionDetail returns the full per-card breakdown for a session.
func (h *SessionHandler) GetSessionDetail(c *gin.Context) {
	detail, err := h.resolver.SessionDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// StartSession creates a new active session.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := &models.Session{
		ID:         uuid.New().String(),
		Game:       req.Game,
		LeagueID:   req.LeagueID,
		StartedAt:  time.Now(),
		IsActive:   true,
		SnapshotID: req.SnapshotID,
	}
	if err := h.store.CreateSession(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.LeagueName != "" {
		league := &models.League{Game: req.Game, LeagueID: req.LeagueID, Name: req.LeagueName}
		if err := h.store.UpsertLeague(c.Request.Context(), league); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, sess)
}

// SetTotalCount updates the authoritative decks-opened count for a session.
func (h *SessionHandler) SetTotalCount(c *gin.Context) {
	id := c.Param("id")

	var req models.SetTotalCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TotalCount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total_count must not be negative"})
		return
	}

	sess, err := h.store.SessionByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if err := h.store.SetSessionTotalCount(c.Request.Context(), id, req.TotalCount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "total_count": req.TotalCount})
}

// EndSession closes a session and materializes its summary row.
func (h *SessionHandler) EndSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := h.store.SessionByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if !sess.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "session already ended"})
		return
	}

	endedAt := time.Now()
	if err := h.store.EndSession(c.Request.Context(), id, endedAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sess.EndedAt = &endedAt
	sess.IsActive = false

	if err := h.summaries.Materialize(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// AddCard records cards obtained during a session, merging counts into the
// existing ledger entry for the name.
func (h *SessionHandler) AddCard(c *gin.Context) {
	id := c.Param("id")

	var req models.AddCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must not be negative"})
		return
	}

	sess, err := h.store.SessionByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if err := h.store.UpsertSessionCard(c.Request.Context(), id, req.Name, req.Count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "name": req.Name})
}

// SetCardHidden toggles a card's visibility in one valuation channel.
func (h *SessionHandler) SetCardHidden(c *gin.Context) {
	id := c.Param("id")

	var req models.SetCardHiddenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Channel != models.ChannelExchange && req.Channel != models.ChannelStash {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be 'exchange' or 'stash'"})
		return
	}

	if err := h.store.SetCardHidden(c.Request.Context(), id, req.Name, req.Channel, req.Hidden); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "name": req.Name, "channel": req.Channel, "hidden": req.Hidden})
}
