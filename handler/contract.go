package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/ErikTechForce/TechForcePortal-sub000/middleware"
	"github.com/ErikTechForce/TechForcePortal-sub000/service"
	"github.com/gin-gonic/gin"
)

// ContractHandler serves both sides of the signing workflow: the staff side
// that mints links, and the public unauthenticated side the client uses to
// review, sign and submit.
type ContractHandler struct {
	contracts *service.Contracts
}

func NewContractHandler(contracts *service.Contracts) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

type GenerateRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	FormData   map[string]string `json:"form_data" binding:"required"`
}

// Generate mints a signing link for an order in Contract stage. Staff only.
func (h *ContractHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template_id and form_data are required"})
		return
	}

	contract, shareURL, err := h.contracts.Generate(c.Request.Context(), c.Param("number"), req.TemplateID, req.FormData, middleware.GetUsername(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrWrongStage):
			c.JSON(http.StatusConflict, gin.H{"error": "Order is not in Contract stage"})
		case errors.Is(err, service.ErrTemplateLoad):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown template"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate contract link"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"contract_id":  contract.ContractID,
		"order_number": contract.OrderNumber,
		"status":       contract.Status,
		"share_url":    shareURL,
		"generated_at": contract.GeneratedAt,
	})
}

// Status returns pending or signed for a contract id. Public: the page
// checks this first and short-circuits to the thank-you view once signed.
func (h *ContractHandler) Status(c *gin.Context) {
	status, err := h.contracts.Status(c.Request.Context(), c.Param("contract_id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

type RenderRequest struct {
	// Encoded form data from the link fragment. Optional; when absent the
	// server-side snapshot taken at link generation is rendered.
	FormData string           `json:"form_data"`
	Strokes  []service.Stroke `json:"strokes"`
}

// Render fills the contract template for the public review page, with the
// drawn signature embedded when strokes are posted. Public.
func (h *ContractHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var formData map[string]string
	if req.FormData != "" {
		decoded, err := service.DecodeFormData(req.FormData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract data in link"})
			return
		}
		formData = decoded
	}

	pdf, err := h.contracts.RenderDraft(c.Request.Context(), c.Param("contract_id"), formData, req.Strokes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		case errors.Is(err, service.ErrAlreadySigned):
			c.JSON(http.StatusConflict, gin.H{"error": "Contract already signed"})
		case errors.Is(err, service.ErrInvalidFormData):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract data in link"})
		case errors.Is(err, service.ErrImageEmbed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not embed the signature image"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not load or fill the contract PDF"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pdf": base64.StdEncoding.EncodeToString(pdf),
	})
}

type SubmitRequest struct {
	PDFSigned string `json:"pdf_signed" binding:"required"`
}

// Submit accepts the signed PDF, once. Public, single-use: the second
// submission for a contract id gets 409 and changes nothing.
func (h *ContractHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_signed is required"})
		return
	}

	err := h.contracts.Submit(c.Request.Context(), c.Param("contract_id"), req.PDFSigned)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		case errors.Is(err, service.ErrAlreadySigned):
			c.JSON(http.StatusConflict, gin.H{"error": "Contract already signed"})
		case errors.Is(err, service.ErrInvalidPDF):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Submitted document is not a valid PDF"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store signed contract"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed"})
}

// SignedPDF streams the stored signed document to staff. 404 while pending.
func (h *ContractHandler) SignedPDF(c *gin.Context) {
	pdf, err := h.contracts.SignedPDF(c.Request.Context(), c.Param("contract_id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No signed contract available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load signed contract"})
		return
	}

	c.Data(http.StatusOK, "application/pdf", pdf)
}
