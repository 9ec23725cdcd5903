// Package handler exposes the opportunity pipeline over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"climas_backend/internal/opportunities/service"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/httpkit"
	"climas_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
	msgInvalidVersion = "invalid quotation version"
	msgInvalidIndex   = "invalid material index"
)

// Handler handles HTTP requests for opportunities.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new opportunities handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the opportunity routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/client", h.RegisterClient)
	rg.PATCH("/:id/priority", h.SetPriority)
	rg.POST("/:id/transitions", h.Transition)
	rg.GET("/:id/stage-duration", h.StageDuration)
	rg.GET("/:id/panels", h.Panels)
	rg.POST("/:id/communications", h.LogCommunication)
	rg.POST("/:id/documents", h.AttachDocument)
	rg.POST("/:id/documents/upload-url", h.PresignDocumentUpload)
	rg.GET("/:id/documents/:documentId/download", h.DocumentDownloadURL)
	rg.POST("/:id/work-order", h.GenerateWorkOrder)

	rg.GET("/:id/quotations", h.QuotationHistory)
	rg.POST("/:id/quotations", h.CreateQuotation)
	rg.GET("/:id/quotations/:version", h.Quotation)
	rg.PUT("/:id/quotations/:version", h.UpdateQuotation)
	rg.POST("/:id/quotations/:version/materials/import", h.ImportMaterials)
	rg.DELETE("/:id/quotations/:version/materials/:index", h.RemoveMaterial)
	rg.POST("/:id/quotations/:version/recompute", h.RecomputeQuotation)
	rg.POST("/:id/quotations/:version/submit", h.SubmitQuotation)
	rg.POST("/:id/quotations/:version/send", h.SendQuotation)
	rg.POST("/:id/quotations/:version/approve", h.ApproveQuotation)
	rg.POST("/:id/quotations/:version/revise", h.ReviseQuotation)
	rg.POST("/:id/quotations/:version/export", h.ExportQuotation)

	rg.GET("/:id/changes", h.ChangeRequests)
	rg.POST("/:id/changes", h.RequestChange)
	rg.GET("/:id/changes/:changeId/impact", h.ChangeImpact)
	rg.POST("/:id/changes/:changeId/approve", h.ApproveChange)
	rg.POST("/:id/changes/:changeId/reject", h.RejectChange)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListOpportunitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if httpkit.HandleError(c, h.val.Check(req)) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOpportunityRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RegisterClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.RegisterClientRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.RegisterClient(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetPriority(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.SetPriorityRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SetPriority(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) StageDuration(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.StageDuration(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Panels(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Panels(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) LogCommunication(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.LogCommunicationRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.LogCommunication(c.Request.Context(), id, httpkit.Actor(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) AttachDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.AttachDocumentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.AttachDocument(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) PresignDocumentUpload(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.PresignDocumentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.PresignDocumentUpload(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DocumentDownloadURL(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	documentID, ok := parseID(c, "documentId")
	if !ok {
		return
	}

	result, err := h.svc.DocumentDownloadURL(c.Request.Context(), id, documentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GenerateWorkOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.GenerateWorkOrderRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.GenerateWorkOrder(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// bind decodes a required JSON body and validates it.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	return !httpkit.HandleError(c, h.val.Check(req))
}

// bindOptional accepts an empty body.
func (h *Handler) bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return !httpkit.HandleError(c, h.val.Check(req))
	}
	return h.bind(c, req)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID)
		return uuid.UUID{}, false
	}
	return id, true
}

func parseVersion(c *gin.Context) (int, bool) {
	v, err := strconv.Atoi(c.Param("version"))
	if err != nil || v < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVersion)
		return 0, false
	}
	return v, true
}

func parseIDAndVersion(c *gin.Context) (uuid.UUID, int, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return uuid.UUID{}, 0, false
	}
	version, ok := parseVersion(c)
	if !ok {
		return uuid.UUID{}, 0, false
	}
	return id, version, true
}
