package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/models"
	"github.com/lernwerk/backend/internal/services"
	"github.com/lernwerk/backend/pkg/validation"
)

type UploadHandler struct {
	uploadService  *services.UploadService
	productService *services.ProductService
	existence      *services.ExistenceService
	store          *services.StoreService
}

func NewUploadHandler(uploadService *services.UploadService, productService *services.ProductService, existence *services.ExistenceService, store *services.StoreService) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		productService: productService,
		existence:      existence,
		store:          store,
	}
}

// StartUpload begins a batch upload session
// POST /products/:id/assets/:kind/uploads
// Multipart form: files[] (one or more), module (optional slot index),
// replace (optional, "true" allows a single-slot swap)
func (h *UploadHandler) StartUpload(c *gin.Context) {
	product, kind, ok := h.productAndKind(c)
	if !ok {
		return
	}

	maxMemory := int64(64 * 1024 * 1024)
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}
	form := c.Request.MultipartForm
	fileHeaders, okForm := form.File["files[]"]
	if !okForm || len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "files[] is required"})
		return
	}

	module, _ := strconv.Atoi(c.PostForm("module"))
	replace := c.PostForm("replace") == "true"

	files := make([]assets.FileUpload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
			return
		}
		files = append(files, assets.FileUpload{
			Name:        validation.SanitizeFilename(fh.Filename),
			Size:        fh.Size,
			ModTime:     lastModified(fh.Header.Get("Last-Modified")),
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			Module:      module,
		})
	}

	session, err := h.uploadService.Upload(c.Request.Context(), product, files, services.UploadOptions{
		Kind:    kind,
		Module:  module,
		Replace: replace,
	})
	if err != nil {
		status := http.StatusBadRequest
		if !assets.IsValidation(err) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": session.ID,
		"kind":       kind.String(),
		"total":      len(files),
	})
}

// GetSession returns the live session snapshot
// GET /uploads/:id
func (h *UploadHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	done, total := session.Progress()
	summary := session.Summary()
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"progress":   gin.H{"done": done, "total": total, "current": session.Current()},
		"completed":  summary.Completed,
		"failed":     summary.Failed,
		"cancelled":  summary.Cancelled,
		"files":      summary.Files,
	})
}

// CancelSession requests cooperative cancellation
// POST /uploads/:id/cancel
func (h *UploadHandler) CancelSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session, err := h.uploadService.Cancel(session.ID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	// With completed files on record the controller will ask for a cleanup
	// decision; with none it cancels outright.
	awaitingDecision := session.CompletedCount() > 0
	c.JSON(http.StatusAccepted, gin.H{
		"session_id":        session.ID,
		"awaiting_decision": awaitingDecision,
		"choices":           []assets.CleanupChoice{assets.CleanupKeep, assets.CleanupRollback, assets.CleanupContinue},
		"recommended":       assets.CleanupKeep,
	})
}

// SubmitCleanupDecision resolves a pending keep/rollback/continue question
// POST /uploads/:id/cancel/decision
func (h *UploadHandler) SubmitCleanupDecision(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Choice string `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choice is required"})
		return
	}

	choice := assets.CleanupChoice(req.Choice)
	switch choice {
	case assets.CleanupKeep, assets.CleanupRollback, assets.CleanupContinue:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "choice must be keep, rollback or continue"})
		return
	}

	if err := h.uploadService.SubmitCleanupChoice(session.ID, choice); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "choice": choice})
}

// CheckAsset reports whether an asset occupies the kind's slot
// GET /products/:id/assets/:kind
func (h *UploadHandler) CheckAsset(c *gin.Context) {
	product, kind, ok := h.productAndKind(c)
	if !ok {
		return
	}

	existence := h.existence.Exists(c.Request.Context(), product, kind)
	c.JSON(http.StatusOK, existence)
}

// AssetURL returns a short-lived download URL for an existing asset
// GET /products/:id/assets/:kind/url?module=N
func (h *UploadHandler) AssetURL(c *gin.Context) {
	product, kind, ok := h.productAndKind(c)
	if !ok {
		return
	}

	existence := h.existence.Exists(c.Request.Context(), product, kind)
	if !existence.Exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "no asset for " + kind.String()})
		return
	}

	ref, err := assets.Resolve(product, kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	module, _ := strconv.Atoi(c.Query("module"))
	key := services.ObjectKey(ref, kind, existence.Filename, module)
	downloadURL, err := h.store.PresignGet(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      downloadURL,
		"filename": existence.Filename,
	})
}

// DeleteAsset removes an existing asset
// DELETE /products/:id/assets/:kind
func (h *UploadHandler) DeleteAsset(c *gin.Context) {
	product, kind, ok := h.productAndKind(c)
	if !ok {
		return
	}

	err := h.uploadService.DeleteAsset(c.Request.Context(), product, kind)
	if err != nil {
		switch {
		case assets.IsValidation(err):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case assets.IsPartialSync(err):
			// Asset removed remotely, record fields unconfirmed. Not a
			// failure, not a clean success either.
			c.JSON(http.StatusOK, gin.H{"deleted": true, "partial_sync": true, "detail": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *UploadHandler) productAndKind(c *gin.Context) (product *models.Product, kind assets.Kind, ok bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return nil, 0, false
	}
	kind, err = assets.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, 0, false
	}
	product, err = h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return nil, 0, false
	}
	return product, kind, true
}

func (h *UploadHandler) session(c *gin.Context) (*assets.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return nil, false
	}
	session, ok := h.uploadService.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}

func lastModified(header string) int64 {
	if header == "" {
		return 0
	}
	if t, err := http.ParseTime(header); err == nil {
		return t.UnixMilli()
	}
	return 0
}
