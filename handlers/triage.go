package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medtriage/models"
	"medtriage/services/ingestion"
	"medtriage/services/triage"
	"medtriage/utils"
)

// TriageHandler exposes the pipeline over HTTP.
type TriageHandler struct {
	Coordinator *triage.Coordinator
	Logger      *zap.Logger
}

// NewTriageHandler returns a handler bound to the pipeline coordinator.
func NewTriageHandler(coordinator *triage.Coordinator, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{Coordinator: coordinator, Logger: logger}
}

// RunTriage handles POST /api/triage. It accepts a multipart form with the
// patient fields, an "xray" image and optional "documents" attachments.
func (h *TriageHandler) RunTriage(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	payload := ingestion.Payload{Fields: make(map[string]string, len(form.Value))}
	for key, values := range form.Value {
		if len(values) > 0 {
			payload.Fields[key] = values[0]
		}
	}

	xray, err := readFormFile(form, "xray")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "X-ray upload missing or unreadable", err.Error())
		return
	}
	payload.Xray = xray

	for _, fh := range form.File["documents"] {
		doc, err := readFileHeader(fh)
		if err != nil {
			h.Logger.Warn("Skipping unreadable document", zap.String("name", fh.Filename), zap.Error(err))
			continue
		}
		payload.Documents = append(payload.Documents, doc)
	}

	result := h.Coordinator.Execute(payload)
	h.cacheResult(c, result)

	c.JSON(statusCode(result.Status), result)
}

// GetSession handles GET /api/triage/session/:sessionID from the result cache.
func (h *TriageHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Session id is required", "")
		return
	}

	blob, err := utils.GetSessionCacheClient().Get(c.Request.Context(), sessionKey(sessionID)).Bytes()
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Session not found or expired", sessionID)
		return
	}

	var result models.TriageResult
	if err := json.Unmarshal(blob, &result); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Corrupt cached session", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// cacheResult stores the finished result for later session lookups. Cache
// failures are logged, never surfaced to the caller.
func (h *TriageHandler) cacheResult(c *gin.Context, result *models.TriageResult) {
	blob, err := json.Marshal(result)
	if err != nil {
		h.Logger.Error("Failed to marshal result for caching", zap.Error(err))
		return
	}
	if err := utils.GetSessionCacheClient().Set(c.Request.Context(), sessionKey(result.SessionID), blob, utils.SessionCacheTTL()).Err(); err != nil {
		h.Logger.Warn("Failed to cache triage result", zap.String("session_id", result.SessionID), zap.Error(err))
	}
}

func sessionKey(sessionID string) string {
	return "triage:session:" + sessionID
}

// statusCode maps pipeline outcomes onto HTTP codes. Emergencies and
// escalations are successful triage outcomes, not errors.
func statusCode(status string) int {
	if status == models.StatusFailed {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func readFormFile(form *multipart.Form, field string) (ingestion.UploadedFile, error) {
	files := form.File[field]
	if len(files) == 0 {
		return ingestion.UploadedFile{}, fmt.Errorf("form file %q is required", field)
	}
	return readFileHeader(files[0])
}

func readFileHeader(fh *multipart.FileHeader) (ingestion.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return ingestion.UploadedFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ingestion.UploadedFile{}, err
	}
	return ingestion.UploadedFile{Name: fh.Filename, Data: data}, nil
}
