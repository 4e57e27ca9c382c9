package gallery

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakkuru/image-gallery/internal/response"
	"github.com/sakkuru/image-gallery/internal/storage"
)

//go:embed templates
var templatesFS embed.FS

var galleryTemplate = template.Must(template.ParseFS(templatesFS, "templates/gallery.html"))

// Handler holds HTTP handlers for the gallery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the gallery routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Page)
	r.Post("/upload", h.Upload)
	r.Post("/delete", h.Delete)
	r.Post("/like/{key}", h.Like)
}

type pageData struct {
	Entries []Entry
}

// likeResponse is the wire shape of POST /like/{key}.
type likeResponse struct {
	Success bool   `json:"success"`
	Likes   int64  `json:"likes,omitempty"`
	Message string `json:"message,omitempty"`
}

type deleteRequest struct {
	BlobNames KeyList `json:"blob_names"`
}

// Page godoc
//
//	@Summary		Gallery page
//	@Description	Renders the gallery: every image with a signed URL and its like count, newest first.
//	@Tags			gallery
//	@Produce		html
//	@Success		200	{string}	string	"rendered gallery page"
//	@Failure		500	{object}	response.Envelope
//	@Router			/ [get]
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("gallery listing failed", "error", err)
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := galleryTemplate.Execute(w, pageData{Entries: entries}); err != nil {
		slog.Error("gallery render failed", "error", err)
	}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Stores the multipart "file" field under a synthesized unique key. A request without a file is a no-op.
//	@Tags			gallery
//	@Accept			mpfd
//	@Success		303	{string}	string	"redirect to /"
//	@Failure		500	{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			// No file submitted: nothing to do.
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		response.BadRequest(w, "malformed upload request")
		return
	}
	defer file.Close()

	key, err := h.svc.Upload(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		slog.Error("upload failed", "filename", header.Filename, "error", err)
		response.InternalError(w)
		return
	}

	slog.Info("image uploaded", "key", key, "size", header.Size)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete godoc
//
//	@Summary		Delete images
//	@Description	Deletes the named blobs in order, stopping on the first failure. Accepts repeated form values or a JSON body where blob_names is a string or a list of strings.
//	@Tags			gallery
//	@Accept			json
//	@Success		303	{string}	string	"redirect to /"
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/delete [post]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	keys, err := deleteKeys(r)
	if err != nil {
		response.BadRequest(w, "malformed delete request")
		return
	}
	if len(keys) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.svc.Delete(r.Context(), keys); err != nil {
		slog.Error("delete failed", "error", err)
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			if errors.Is(batchErr.Err, storage.ErrNotFound) {
				response.NotFound(w, batchErr.Error())
				return
			}
			response.Error(w, http.StatusInternalServerError, batchErr.Error())
			return
		}
		response.InternalError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// deleteKeys extracts the deletion batch from either a JSON body or form
// values. A lone string normalizes to a one-element batch; every key is
// trimmed and blanks are dropped regardless of transport.
func deleteKeys(r *http.Request) ([]string, error) {
	var names []string

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		names = req.BlobNames
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		names = r.PostForm["blob_names"]
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		if s := strings.TrimSpace(name); s != "" {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

// Like godoc
//
//	@Summary		Like an image
//	@Description	Atomically increments the like counter for the given storage key and returns the new count.
//	@Tags			gallery
//	@Produce		json
//	@Param			key	path		string	true	"storage key"
//	@Success		200	{object}	likeResponse
//	@Failure		400	{object}	likeResponse
//	@Failure		500	{object}	likeResponse
//	@Router			/like/{key} [post]
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		response.JSON(w, http.StatusBadRequest, likeResponse{Success: false, Message: "missing storage key"})
		return
	}

	count, err := h.svc.Like(r.Context(), key)
	if err != nil {
		slog.Error("like failed", "key", key, "error", err)
		response.JSON(w, http.StatusInternalServerError, likeResponse{Success: false, Message: "could not record like"})
		return
	}

	response.JSON(w, http.StatusOK, likeResponse{Success: true, Likes: count})
}
