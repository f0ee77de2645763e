package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/dto"
	"github.com/soitmed/medops-api/internal/middleware"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
	"github.com/soitmed/medops-api/pkg/storage"
)

// DealHandler exposes the deal approval chain endpoints.
type DealHandler struct {
	deals   *service.DealService
	storage *storage.LocalStorage
}

// NewDealHandler constructs the handler.
func NewDealHandler(deals *service.DealService, files *storage.LocalStorage) *DealHandler {
	return &DealHandler{deals: deals, storage: files}
}

// Create godoc
// @Summary Open a deal directly
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateDealRequest true "deal"
// @Success 201 {object} response.Envelope{data=models.Deal}
// @Failure 400 {object} response.Envelope
// @Router /deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	var req dto.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	deal := req.ToModel()
	if err := h.deals.Create(c.Request.Context(), deal); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deal)
}

// Get godoc
// @Summary Fetch a deal
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param id path string true "deal id"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 404 {object} response.Envelope
// @Router /deals/{id} [get]
func (h *DealHandler) Get(c *gin.Context) {
	deal, err := h.deals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// List godoc
// @Summary List deals
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param status query []string false "status filter"
// @Success 200 {object} response.Envelope{data=[]models.Deal}
// @Router /deals [get]
func (h *DealHandler) List(c *gin.Context) {
	var query dto.ListDealsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	deals, err := h.deals.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deals, nil)
}

// ManagerReview godoc
// @Summary First-tier manager verdict
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "deal id"
// @Param request body dto.DealReviewRequest true "verdict"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/manager-review [post]
func (h *DealHandler) ManagerReview(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DealReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	deal, err := h.deals.ManagerReview(c.Request.Context(), c.Param("id"),
		claims.UserID, req.Approve, req.RejectionReason(), req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// SuperAdminReview godoc
// @Summary Second-tier super admin verdict
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "deal id"
// @Param request body dto.DealReviewRequest true "verdict"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/superadmin-review [post]
func (h *DealHandler) SuperAdminReview(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DealReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	deal, err := h.deals.SuperAdminReview(c.Request.Context(), c.Param("id"),
		claims.UserID, req.Approve, req.RejectionReason(), req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// MarkClientAccountCreated godoc
// @Summary Record that finance provisioned the client account
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param id path string true "deal id"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/client-account [post]
func (h *DealHandler) MarkClientAccountCreated(c *gin.Context) {
	deal, err := h.deals.MarkClientAccountCreated(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// SubmitReport godoc
// @Summary Submit the salesman report and send the deal to legal
// @Description Accepts multipart form data: a report_text field plus any
// @Description number of attachment files under the "attachments" key.
// @Tags deals
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param id path string true "deal id"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/report [post]
func (h *DealHandler) SubmitReport(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reportText := c.PostForm("report_text")
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form expected"))
		return
	}

	var uploads []service.AttachmentUpload
	for _, file := range form.File["attachments"] {
		src, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unreadable attachment"))
			return
		}
		data, err := io.ReadAll(src)
		src.Close() //nolint:errcheck
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unreadable attachment"))
			return
		}
		uploads = append(uploads, service.AttachmentUpload{
			FileName:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	deal, err := h.deals.SubmitReport(c.Request.Context(), c.Param("id"), claims.UserID, reportText, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// Complete godoc
// @Summary Close a deal after legal sign-off
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param id path string true "deal id"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/complete [post]
func (h *DealHandler) Complete(c *gin.Context) {
	deal, err := h.deals.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// Fail godoc
// @Summary Abandon a deal
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "deal id"
// @Param request body dto.FailDealRequest false "notes"
// @Success 200 {object} response.Envelope{data=models.Deal}
// @Failure 409 {object} response.Envelope
// @Router /deals/{id}/fail [post]
func (h *DealHandler) Fail(c *gin.Context) {
	var req dto.FailDealRequest
	_ = c.ShouldBindJSON(&req)
	deal, err := h.deals.Fail(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deal, nil)
}

// ListAttachments godoc
// @Summary List report attachments of a deal
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param id path string true "deal id"
// @Success 200 {object} response.Envelope{data=[]models.DealAttachment}
// @Router /deals/{id}/attachments [get]
func (h *DealHandler) ListAttachments(c *gin.Context) {
	attachments, err := h.deals.ListAttachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}

// SignAttachment godoc
// @Summary Issue a time-limited download token for an attachment
// @Tags deals
// @Security BearerAuth
// @Produce json
// @Param id path string true "deal id"
// @Param attachmentID path string true "attachment id"
// @Success 200 {object} response.Envelope{data=dto.AttachmentURLResponse}
// @Failure 404 {object} response.Envelope
// @Router /deals/{id}/attachments/{attachmentID}/url [get]
func (h *DealHandler) SignAttachment(c *gin.Context) {
	token, expires, err := h.deals.SignAttachment(c.Request.Context(), c.Param("id"), c.Param("attachmentID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AttachmentURLResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	}, nil)
}

// DownloadAttachment godoc
// @Summary Download an attachment with a signed token
// @Tags deals
// @Produce octet-stream
// @Param token query string true "signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /attachments/download [get]
func (h *DealHandler) DownloadAttachment(c *gin.Context) {
	attachment, err := h.deals.ResolveAttachmentToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.storage == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidOperation, "attachment downloads are not configured"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
	c.Header("Content-Type", attachment.ContentType)
	c.File(h.storage.Path(attachment.StoragePath))
}
