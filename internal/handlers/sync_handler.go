package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salonci/salon-pos/internal/httpresp"
	syncuc "github.com/salonci/salon-pos/internal/usecase/sync"
)

type SyncHandler struct {
	synchronizer *syncuc.Synchronizer
}

func NewSyncHandler(synchronizer *syncuc.Synchronizer) *SyncHandler {
	return &SyncHandler{synchronizer: synchronizer}
}

// ======================================================
// RÉCEPTION D'UN LOT
// ======================================================
func (h *SyncHandler) Push(c *gin.Context) {
	var batch syncuc.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Lot illisible.")
		return
	}

	result, err := h.synchronizer.Execute(c.Request.Context(), batch)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OKMessage(c, "Lot traité.", result)
}

// ======================================================
// ÉTAT D'UN TERMINAL
// ======================================================
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.synchronizer.Status(c.Request.Context(), c.Query("device_id"))
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, status)
}
