package video

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ldynamics/vidstore/internal/middleware"
	"github.com/ldynamics/vidstore/internal/response"
)

// uploadField is the multipart field carrying the video.
const uploadField = "file"

// Handler holds HTTP handlers for video endpoints.
type Handler struct {
	gw        *Gateway
	maxUpload int64
}

// NewHandler creates a new video Handler. Request bodies larger than
// maxUpload bytes are rejected.
func NewHandler(gw *Gateway, maxUpload int64) *Handler {
	return &Handler{gw: gw, maxUpload: maxUpload}
}

// KeyRequest names one stored object.
type KeyRequest struct {
	DLKey string `json:"dlKey" example:"uploadedVideos/clip1.mp4"`
}

// Upload godoc
//
//	@Summary		Upload a video
//	@Description	Stores the multipart field "file" under the video namespace, replacing any object with the same name.
//	@Tags			videos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Video file"
//	@Success		201		{object}	response.Envelope{data=StoredObject}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	mr, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "multipart/form-data body required")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			response.BadRequest(w, "file field is required")
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		obj, err := h.gw.Upload(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			writeError(w, err)
			return
		}

		log.Info().Str("actor", middleware.Actor(r.Context())).Str("key", obj.Key).
			Uint64("size", obj.Size).Msg("video uploaded")
		response.Created(w, obj)
		return
	}
}

// List godoc
//
//	@Summary		List videos
//	@Description	Returns every stored video in the namespace.
//	@Tags			videos
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=[]StoredObject}
//	@Failure		502	{object}	response.Envelope
//	@Router			/list [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	objs, err := h.gw.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, objs)
}

// Download godoc
//
//	@Summary		Download a video
//	@Description	Streams the object back as an attachment named after the key.
//	@Tags			videos
//	@Accept			json,x-www-form-urlencoded
//	@Produce		octet-stream
//	@Param			body	body		KeyRequest	true	"Object key"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/downloadFile [post]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key, err := readKey(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	d, err := h.gw.Fetch(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer d.Body.Close()

	response.Attachment(w, d.Filename(), d.ContentType, d.Size)
	if _, err := io.Copy(w, d.Body); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("download interrupted")
	}
}

// Delete godoc
//
//	@Summary		Delete a video
//	@Description	Removes the object. Deleting a key that does not exist succeeds.
//	@Tags			videos
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		KeyRequest	true	"Object key"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/deleteFile [post]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key, err := readKey(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.gw.Delete(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("actor", middleware.Actor(r.Context())).Str("key", key).Msg("video deleted")
	response.OK(w, nil)
}

// readKey accepts dlKey from a JSON body or a form post, the shape the
// original list page submits.
func readKey(r *http.Request) (string, error) {
	var req KeyRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errors.New("invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return "", errors.New("invalid form body")
		}
		req.DLKey = r.PostFormValue("dlKey")
	}
	if req.DLKey == "" {
		return "", errors.New("dlKey is required")
	}
	return req.DLKey, nil
}

// writeError maps gateway errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		response.PayloadTooLarge(w, "upload exceeds size limit")
	case errors.Is(err, ErrInvalidName):
		response.BadRequest(w, "invalid file name")
	case errors.Is(err, ErrInvalidContent):
		response.BadRequest(w, "upload content could not be read")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "object not found")
	case errors.Is(err, ErrStoreUnavailable):
		response.BadGateway(w, "object store unavailable")
	case errors.Is(err, ErrLocalStaging):
		response.InternalError(w)
	default:
		log.Error().Err(err).Msg("unhandled request error")
		response.BadRequest(w, "malformed request")
	}
}
