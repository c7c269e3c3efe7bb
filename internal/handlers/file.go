package handlers

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/davrd/invoicery/auth"
	"github.com/davrd/invoicery/httpx"
	"github.com/davrd/invoicery/internal/models"
	"github.com/davrd/invoicery/internal/storage"
	"gorm.io/gorm"
)

type FileHandler struct {
	db    *gorm.DB
	store *storage.Store
}

func NewFileHandler(db *gorm.DB, store *storage.Store) *FileHandler {
	return &FileHandler{db: db, store: store}
}

// maxUploadBytes caps attachment size at 10 MiB.
const maxUploadBytes = 10 << 20

// Attach uploads a file and links it to an invoice. The object is written
// before the row is updated, so a failed update leaves an orphan object, never
// a dangling key. Replacing an attachment deletes the old object only after
// the new key is committed.
func (h *FileHandler) Attach(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}

	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing_file")
		return
	}
	defer file.Close()

	key, err := h.store.Save(userID, header.Filename, file)
	if err != nil {
		serverError(w, err)
		return
	}

	oldKey := inv.FileKey
	if err := h.db.WithContext(r.Context()).Model(&inv).Update("file_key", key).Error; err != nil {
		// Roll back the orphan object; the row still points at the old key.
		if derr := h.store.Delete(key); derr != nil {
			slog.Warn("orphan object cleanup failed", "key", key, "error", derr)
		}
		serverError(w, err)
		return
	}
	if oldKey != "" {
		if err := h.store.Delete(oldKey); err != nil {
			slog.Warn("stale object cleanup failed", "key", oldKey, "error", err)
		}
	}

	inv.FileKey = key
	httpx.JSON(w, http.StatusOK, map[string]string{
		"file_key": key,
		"url":      h.store.PublicURL(key),
	})
}

// Detach removes an invoice's attachment.
func (h *FileHandler) Detach(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid_id")
		return
	}

	var inv models.Invoice
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		respondFetchErr(w, err)
		return
	}
	if inv.FileKey == "" {
		notFound(w)
		return
	}

	key := inv.FileKey
	if err := h.db.WithContext(r.Context()).Model(&inv).Update("file_key", "").Error; err != nil {
		serverError(w, err)
		return
	}
	if err := h.store.Delete(key); err != nil {
		slog.Warn("object cleanup failed", "key", key, "error", err)
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Download streams an object. Keys are user-prefixed and only the owner may
// read them.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	key := r.PathValue("key")
	if key == "" {
		badRequest(w, "invalid_key")
		return
	}
	if !storage.OwnedBy(key, userID) {
		notFound(w)
		return
	}

	obj, err := h.store.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			notFound(w)
			return
		}
		serverError(w, err)
		return
	}
	defer obj.Close()

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, obj); err != nil {
		slog.Warn("object stream interrupted", "key", key, "error", err)
	}
}
