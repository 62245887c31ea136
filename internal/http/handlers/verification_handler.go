package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/staymate/staymate-bff/internal/dto"
	"github.com/staymate/staymate-bff/internal/http/handlers/common"
	"github.com/staymate/staymate-bff/internal/http/middleware"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/viewstate"
	"github.com/staymate/staymate-bff/internal/ws"
)

// Разрешённые типы документов
var allowedDocumentMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Разрешённые расширения файлов
var allowedDocumentExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

var documentTypes = []string{"GOVERNMENT_ID", "ID_CARD", "PASSPORT"}

const defaultDocumentType = "GOVERNMENT_ID"

// VerificationHandler принимает документы верификации и передаёт их в StayMate.
type VerificationHandler struct {
	api            *upstream.API
	publisher      ws.Publisher
	maxUploadBytes int64
}

// NewVerificationHandler создаёт хэндлер. publisher может быть nil.
func NewVerificationHandler(api *upstream.API, publisher ws.Publisher, maxUploadMB int64) *VerificationHandler {
	return &VerificationHandler{
		api:            api,
		publisher:      publisher,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// UploadDocument обрабатывает POST /api/verification/documents.
func (h *VerificationHandler) UploadDocument(c *gin.Context) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, invalid("поле file обязательно"))
		return
	}

	if file.Size == 0 {
		common.Fail(c, invalid("файл не может быть пустым"))
		return
	}
	if file.Size > h.maxUploadBytes {
		common.Fail(c, invalid(fmt.Sprintf("размер файла превышает %d МБ", h.maxUploadBytes/(1024*1024))))
		return
	}

	documentType := strings.ToUpper(strings.TrimSpace(c.PostForm("documentType")))
	if documentType == "" {
		documentType = defaultDocumentType
	}
	if !slices.Contains(documentTypes, documentType) {
		common.Fail(c, invalid("тип документа должен быть одним из: "+strings.Join(documentTypes, ", ")))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocumentExtensions[ext] {
		common.Fail(c, invalid("неподдерживаемый формат файла. Разрешены: .jpg, .jpeg, .png, .webp, .pdf"))
		return
	}

	src, err := file.Open()
	if err != nil {
		common.Fail(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось открыть файл"))
		return
	}
	defer src.Close()

	// Реальный тип файла определяется по первым байтам.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.Fail(c, invalid("не удалось прочитать файл"))
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.Fail(c, invalid("не удалось определить тип файла. Разрешены изображения и PDF"))
		return
	}

	contentType := kind.MIME.Value
	if !allowedDocumentMimeTypes[contentType] {
		common.Fail(c, invalid(fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType)))
		return
	}

	expectedExt := "." + kind.Extension
	// .jpg и .jpeg - это одно и то же
	if ext != expectedExt && !(ext == ".jpeg" && expectedExt == ".jpg") {
		common.Fail(c, invalid(fmt.Sprintf("расширение файла (%s) не соответствует реальному типу (%s)", ext, expectedExt)))
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		common.Fail(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сбросить позицию файла"))
		return
	}

	if err := h.api.UploadVerificationDocument(c.Request.Context(), sess, sanitizeFilename(file.Filename), contentType, documentType, src); err != nil {
		common.Fail(c, err)
		return
	}

	if h.publisher != nil {
		toast := viewstate.Toast{Level: viewstate.ToastSuccess, Message: "Документ отправлен на проверку"}
		if err := h.publisher.Publish(sess.ID, ws.EventToast, toast); err != nil {
			logger.Log.WithError(err).Debug("verification: уведомление не доставлено")
		}
	}

	common.RespondJSON(c, http.StatusCreated, dto.UploadResponse{
		DocumentType: documentType,
		ContentType:  contentType,
		Size:         file.Size,
	})
}

func invalid(msg string) error {
	return apperror.New(apperror.ErrCodeValidation, msg)
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "document"
	}
	return name
}
