package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exiletally/deck-tracker/backend/internal/models"
	"github.com/exiletally/deck-tracker/backend/internal/services"
	"github.com/exiletally/deck-tracker/backend/internal/store"
)

type SnapshotHandler struct {
	store           *store.Store
	snapshotService *services.SnapshotService
}

func NewSnapshotHandler(st *store.Store, snapshots *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		store:           st,
		snapshotService: snapshots,
	}
}

// GetSnapshot returns a fully assembled price snapshot.
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.store.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RefreshSnapshot fetches fresh prices for a league and writes a new
// immutable snapshot.
func (h *SnapshotHandler) RefreshSnapshot(c *gin.Context) {
	game := models.Game(c.Query("game"))
	league := c.Query("league")
	if game == "" || league == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameters 'game' and 'league' are required"})
		return
	}

	snapshot, err := h.snapshotService.RefreshLeague(c.Request.Context(), game, league)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}
