package workflow

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipscribe/backend/internal/middleware"
	"github.com/clipscribe/backend/pkg/response"
)

// MaxUploadBytes caps multipart video uploads (2GB).
const MaxUploadBytes = 2 << 30

// Handler exposes the workflow over HTTP. Every route is scoped to the
// caller's session cookie.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a workflow handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func sessionID(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionID)
}

// Upload handles POST /videos/upload: multipart MP4 upload with dedupe.
func (h *Handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("video")
	if err != nil {
		response.BadRequest(c, "video file is required")
		return
	}
	defer file.Close()
	if header.Size > MaxUploadBytes {
		response.BadRequest(c, "video exceeds maximum upload size")
		return
	}

	st, reused, err := h.svc.UploadVideo(c.Request.Context(), sessionID(c), header.Filename, file, header.Size)
	if err != nil {
		h.renderError(c, err, "upload video")
		return
	}
	response.OK(c, gin.H{"video": st.Video, "reused": reused})
}

// Start handles POST /transcriptions/start.
func (h *Handler) Start(c *gin.Context) {
	st, err := h.svc.StartTranscription(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "start transcription")
		return
	}
	response.Accepted(c, gin.H{"job_id": st.JobID, "status": st.JobStatus})
}

// Retry handles POST /transcriptions/retry: a fresh job for the stored
// asset, no re-upload.
func (h *Handler) Retry(c *gin.Context) {
	st, err := h.svc.StartTranscription(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "retry transcription")
		return
	}
	response.Accepted(c, gin.H{"job_id": st.JobID, "status": st.JobStatus})
}

// Status handles GET /transcriptions/status: one poll, user-triggered.
func (h *Handler) Status(c *gin.Context) {
	st, err := h.svc.CheckStatus(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "check status")
		return
	}
	response.OK(c, st)
}

// DownloadTranscript handles GET /transcriptions/transcript/download.
func (h *Handler) DownloadTranscript(c *gin.Context) {
	text, err := h.svc.Transcript(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "download transcript")
		return
	}
	response.PlainText(c, "transcripcion.txt", text)
}

// Rewrite handles POST /rewrite and POST /rewrite/retry.
func (h *Handler) Rewrite(c *gin.Context) {
	st, err := h.svc.RewriteTranscript(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "rewrite transcript")
		return
	}
	response.OK(c, gin.H{"rewritten_text": st.RewrittenText})
}

// DownloadRewritten handles GET /rewrite/download.
func (h *Handler) DownloadRewritten(c *gin.Context) {
	text, err := h.svc.Rewritten(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "download rewritten text")
		return
	}
	response.PlainText(c, "texto_reprocesado.txt", text)
}

// Session handles GET /session: the current workflow state.
func (h *Handler) Session(c *gin.Context) {
	st, err := h.svc.State(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, err, "load session")
		return
	}
	response.OK(c, st)
}

// ResetSession handles POST /session/reset.
func (h *Handler) ResetSession(c *gin.Context) {
	if err := h.svc.Reset(c.Request.Context(), sessionID(c)); err != nil {
		h.renderError(c, err, "reset session")
		return
	}
	response.OK(c, gin.H{"reset": true})
}

func (h *Handler) renderError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrAuth):
		h.logger.Error("provider authentication failed", zap.String("action", action))
		response.Unauthorized(c, "provider authentication failed, check credentials")
	case errors.Is(err, ErrNoVideo), errors.Is(err, ErrNoJob), errors.Is(err, ErrNoTranscript):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrStorage), errors.Is(err, ErrJobStart),
		errors.Is(err, ErrFetch), errors.Is(err, ErrRewrite):
		h.logger.Warn(action+" failed", zap.Error(err), zap.String("session_id", sessionID(c)))
		response.BadGateway(c, err.Error())
	default:
		h.logger.Error(action+" failed", zap.Error(err), zap.String("session_id", sessionID(c)))
		response.Internal(c, "internal error")
	}
}
