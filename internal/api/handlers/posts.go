package handlers

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/services"
	"github.com/baharkarakas/blog-backend/internal/storage"
)

const (
	// room for a full-size post body
	maxPostJSONBody = 8 << 20
	multipartMemory = 8 << 20
)

type PostHandler struct {
	svc       *services.PostService
	maxUpload int64
}

func NewPostHandler(svc *services.PostService, maxUpload int64) *PostHandler {
	if maxUpload <= 0 {
		maxUpload = storage.DefaultMaxBytes
	}
	return &PostHandler{svc: svc, maxUpload: maxUpload}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context(), services.ListPostsQuery{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

// Create accepts JSON, or multipart/form-data with the image in the
// "thumbnail" file field. A text "thumbnail" or "thumbnail_url" field is
// taken as the URL.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxPostJSONBody)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpx.WriteDecodeError(w, httpx.ErrBodyTooLarge)
				return
			}
			httpx.WriteAppError(w, apperr.Validation("Invalid multipart form", nil))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		req = services.CreatePostRequest{
			Title:        r.FormValue("title"),
			Slug:         r.FormValue("slug"),
			Description:  r.FormValue("description"),
			Category:     r.FormValue("category"),
			Content:      r.FormValue("content"),
			ThumbnailURL: r.FormValue("thumbnail_url"),
		}
		if req.ThumbnailURL == "" {
			req.ThumbnailURL = r.FormValue("thumbnail")
		}

		file, header, err := r.FormFile("thumbnail")
		switch {
		case err == nil:
			defer file.Close()
			req.Upload = &storage.Upload{Filename: header.Filename, Size: header.Size, Content: file}
		case errors.Is(err, http.ErrMissingFile):
		default:
			httpx.WriteAppError(w, apperr.Validation("Invalid thumbnail upload", nil))
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxPostJSONBody)
		var body struct {
			services.CreatePostRequest
			Thumbnail string `json:"thumbnail"`
		}
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteDecodeError(w, err)
			return
		}
		req = body.CreatePostRequest
		if req.ThumbnailURL == "" {
			req.ThumbnailURL = body.Thumbnail
		}
	}

	post, err := h.svc.Create(r.Context(), actor.ID, req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBySlug(r.Context(), actor.ID, chi.URLParam(r, "slug")); err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	writeAck(w, "Blog deleted successfully")
}

func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	posts, err := h.svc.ListSaved(r.Context(), u.ID)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.Save(r.Context(), u.ID, chi.URLParam(r, "slug")); err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	writeAck(w, "Blog saved")
}

func (h *PostHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.Unsave(r.Context(), u.ID, chi.URLParam(r, "slug")); err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	writeAck(w, "Blog removed from saved")
}
