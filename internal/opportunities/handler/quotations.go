package handler

import (
	"net/http"
	"strconv"

	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) QuotationHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.QuotationHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateQuotation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.CreateQuotationRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.CreateQuotation(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) Quotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Quotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}
	var req transport.UpdateQuotationRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.UpdateQuotationDraft(c.Request.Context(), id, version, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ImportMaterials(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}
	var req transport.ImportMaterialsRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.ImportMaterials(c.Request.Context(), id, version, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RemoveMaterial(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidIndex)
		return
	}

	result, err := h.svc.RemoveQuotationMaterial(c.Request.Context(), id, version, index)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RecomputeQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.RecomputeQuotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SubmitQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.SubmitQuotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SendQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}
	var req transport.SendQuotationRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SendQuotation(c.Request.Context(), id, version, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}

func (h *Handler) ApproveQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.ApproveQuotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ReviseQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.ReviseQuotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) ExportQuotation(c *gin.Context) {
	id, version, ok := parseIDAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.ExportQuotation(c.Request.Context(), id, version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
