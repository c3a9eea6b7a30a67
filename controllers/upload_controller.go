package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
)

// UploadOptions configures an UploadController.
type UploadOptions struct {
	Dir         string
	MaxBytes    int64
	AllowedExts []string
}

// UploadController stores files under the upload directory and records them.
type UploadController struct {
	store    *store.Store
	dir      string
	maxBytes int64
	allowed  map[string]struct{}
}

// NewUploadController creates an UploadController.
func NewUploadController(st *store.Store, opts UploadOptions) *UploadController {
	allowed := make(map[string]struct{}, len(opts.AllowedExts))
	for _, ext := range opts.AllowedExts {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = struct{}{}
	}
	return &UploadController{store: st, dir: opts.Dir, maxBytes: opts.MaxBytes, allowed: allowed}
}

// Upload accepts a multipart "file" with a display "title" and "description".
func (u *UploadController) Upload(ctx *gin.Context) {
	uploader, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		u.fail(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if _, ok := u.allowed[ext]; !ok {
		u.fail(ctx, http.StatusBadRequest, 40031, "file type not allowed")
		return
	}
	if header.Size > u.maxBytes {
		u.fail(ctx, http.StatusRequestEntityTooLarge, 40032, fmt.Sprintf("file exceeds %d MiB", u.maxBytes>>20))
		return
	}

	title := utils.SanitizeText(ctx.PostForm("title"))
	if title == "" {
		title = utils.SanitizeText(filepath.Base(header.Filename))
	}
	if title == "" {
		u.fail(ctx, http.StatusBadRequest, 40033, "title is required")
		return
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create upload directory")
		return
	}
	storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
	dstPath := filepath.Join(u.dir, storedName)

	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}
	// Enforce the limit on the bytes actually received, the header size can lie
	lr := &io.LimitedReader{R: file, N: u.maxBytes + 1}
	written, err := io.Copy(out, lr)
	closeErr := out.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to write file")
		return
	}
	if written > u.maxBytes {
		_ = os.Remove(dstPath)
		u.fail(ctx, http.StatusRequestEntityTooLarge, 40032, fmt.Sprintf("file exceeds %d MiB", u.maxBytes>>20))
		return
	}

	record := &models.UploadedFile{
		StoredName:   storedName,
		OriginalName: filepath.Base(header.Filename),
		DisplayName:  title,
		Description:  utils.SanitizeText(ctx.PostForm("description")),
		ContentType:  header.Header.Get("Content-Type"),
		SizeBytes:    written,
		Uploader:     uploader,
		URL:          "/uploads/" + storedName,
	}
	if err := u.store.CreateUpload(ctx.Request.Context(), record); err != nil {
		_ = os.Remove(dstPath)
		respondError(ctx, err, "")
		return
	}
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, "/", "Arquivo enviado com sucesso.")
		return
	}
	utils.Created(ctx, record)
}

// List returns the newest uploads.
func (u *UploadController) List(ctx *gin.Context) {
	files, err := u.store.ListUploads(ctx.Request.Context(), parseLimit(ctx.Query("limit"), 100))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if files == nil {
		files = []models.UploadedFile{}
	}
	utils.Success(ctx, gin.H{"files": files})
}

// Get returns the record of one stored file.
func (u *UploadController) Get(ctx *gin.Context) {
	record, err := u.store.GetUpload(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, record)
}

func (u *UploadController) fail(ctx *gin.Context, status, code int, msg string) {
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, "/", msg)
		return
	}
	utils.Error(ctx, status, code, msg)
}
