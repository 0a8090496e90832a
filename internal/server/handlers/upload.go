package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tutorlab/liveboard/pkg/api"
)

// maxUploadSize максимальный размер загружаемого изображения (10 MB)
const maxUploadSize = 10 << 20

// allowedExtensions расширения, принимаемые для элементов-изображений
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadHandler handles image uploads for image elements
// Клиент получает durable URL и только после этого фиксирует элемент:
// при ошибке загрузки битый элемент не создается и не рассылается
type UploadHandler struct {
	logger  *slog.Logger
	dir     string
	baseURL string
}

// NewUploadHandler creates a new upload handler
// dir is the directory where uploaded files are stored
// baseURL is the public prefix under which stored files are served
func NewUploadHandler(logger *slog.Logger, dir, baseURL string) *UploadHandler {
	return &UploadHandler{
		logger:  logger,
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// HandleUpload обрабатывает POST /api/v1/upload (multipart, поле "file")
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		h.writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	// Имя файла — UUID: исходное имя не переиспользуем
	name := uuid.NewString() + ext
	path := filepath.Join(h.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		h.logger.Error("Failed to create upload file", "path", path, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	defer func() {
		_ = dst.Close()
	}()

	written, err := io.Copy(dst, file)
	if err != nil {
		h.logger.Error("Failed to write upload file", "path", path, "error", err)
		_ = os.Remove(path)
		h.writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.logger.Info("Image uploaded",
		"file", name,
		"size_bytes", written,
		"remote_addr", r.RemoteAddr)

	resp := api.UploadResponse{
		URL: fmt.Sprintf("%s/%s", h.baseURL, name),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode upload response", "error", err)
	}
}

// writeError отправляет JSON ответ с ошибкой
func (h *UploadHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
