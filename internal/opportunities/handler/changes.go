package handler

import (
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ChangeRequests(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pendingOnly := c.Query("status") == "pending"

	result, err := h.svc.ChangeRequests(c.Request.Context(), id, pendingOnly)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RequestChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.RequestChangeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.RequestChange(c.Request.Context(), id, httpkit.Actor(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) ChangeImpact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changeID, ok := parseID(c, "changeId")
	if !ok {
		return
	}

	result, err := h.svc.ChangeImpact(c.Request.Context(), id, changeID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ApproveChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changeID, ok := parseID(c, "changeId")
	if !ok {
		return
	}
	var req transport.DecideChangeRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.ApproveChange(c.Request.Context(), id, changeID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RejectChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changeID, ok := parseID(c, "changeId")
	if !ok {
		return
	}
	var req transport.DecideChangeRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.RejectChange(c.Request.Context(), id, changeID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
