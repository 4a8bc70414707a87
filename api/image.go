package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pixelforge/pixelforge/catalog"
	"github.com/pixelforge/pixelforge/render"
)

var (
	errInvalidSize      = errors.New("Invalid size")
	errInvalidBlur      = errors.New("Invalid blur amount")
	errInvalidExtension = errors.New("Invalid file extension")
)

// requestParams is a processing request before the image is resolved.
type requestParams struct {
	width  int
	height int
	task   render.Task

	// hasExtension is set when the URL named a format explicitly; such
	// variant URLs are served directly when they carry a valid signature.
	hasExtension bool
}

// parseParams extracts dimensions, format and processing options. size is
// used for square requests; otherwise width and height are parsed
// separately, with the extension carried on the height segment.
func (a *API) parseParams(r *http.Request) (requestParams, error) {
	var p requestParams

	widthStr := chi.URLParam(r, "width")
	heightStr := chi.URLParam(r, "height")
	if widthStr == "" {
		widthStr = chi.URLParam(r, "size")
		heightStr = widthStr
	}

	heightStr, ext, err := splitExtension(heightStr)
	if err != nil {
		return p, err
	}
	if strings.Contains(widthStr, ".") {
		if widthStr, _, err = splitExtension(widthStr); err != nil {
			return p, err
		}
	}

	if p.width, err = strconv.Atoi(widthStr); err != nil || p.width < 0 {
		return p, errInvalidSize
	}
	if p.height, err = strconv.Atoi(heightStr); err != nil || p.height < 0 {
		return p, errInvalidSize
	}

	p.task.Format = ext.format
	p.hasExtension = ext.named
	p.task.Grayscale = r.URL.Query().Has("grayscale")

	if r.URL.Query().Has("blur") {
		value := r.URL.Query().Get("blur")
		if value == "" {
			p.task.Blur = defaultBlurAmount
		} else {
			amount, err := strconv.Atoi(value)
			if err != nil || amount < a.BlurMin || amount > a.BlurMax {
				return p, errInvalidBlur
			}
			p.task.Blur = amount
		}
	}
	return p, nil
}

type extension struct {
	format render.Format
	named  bool
}

// splitExtension strips a trailing file extension from a dimension segment.
func splitExtension(s string) (string, extension, error) {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return s, extension{format: render.JPEG}, nil
	}
	switch s[i:] {
	case ".jpg":
		return s[:i], extension{format: render.JPEG, named: true}, nil
	case ".webp":
		return s[:i], extension{format: render.WebP, named: true}, nil
	default:
		return "", extension{}, errInvalidExtension
	}
}

// resolveTask fills zero dimensions from the image's own size and enforces
// the size limit. Dimensions over the limit stay valid when they match the
// original, so full-size variants of large originals remain reachable.
func (a *API) resolveTask(img catalog.Image, p requestParams) (render.Task, error) {
	task := p.task
	task.Width, task.Height = p.width, p.height
	if task.Width == 0 {
		task.Width = img.Width
	}
	if task.Height == 0 {
		task.Height = img.Height
	}
	if task.Width > a.MaxSize && task.Width != img.Width {
		return task, errInvalidSize
	}
	if task.Height > a.MaxSize && task.Height != img.Height {
		return task, errInvalidSize
	}
	return task, nil
}

// imageHandler serves /id/{id}/{width}/{height}[.ext]. A request with an
// extension and a valid hmac query parameter is rendered and served; any
// other request is redirected to the signed canonical variant URL.
func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.parseParams(r)
	if err != nil {
		a.badRequest(w, err)
		return
	}

	img, err := a.Catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}

	task, err := a.resolveTask(img, p)
	if err != nil {
		a.badRequest(w, err)
		return
	}

	if p.hasExtension && r.URL.Query().Has("hmac") {
		a.serveImage(w, r, img, task)
		return
	}
	a.redirect(w, r, img, task, true)
}

// imageRedirectHandler serves the square /id/{id}/{size}[.ext] form.
func (a *API) imageRedirectHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.parseParams(r)
	if err != nil {
		a.badRequest(w, err)
		return
	}

	img, err := a.Catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}

	task, err := a.resolveTask(img, p)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	a.redirect(w, r, img, task, true)
}

// randomImageHandler serves /{size} and /{width}/{height}. The deprecated
// image query parameter selects a specific image instead of a random one.
func (a *API) randomImageHandler(w http.ResponseWriter, r *http.Request) {
	a.pickAndRedirect(w, r, false)
}

// deprecatedImageHandler serves the legacy grayscale /g/ routes.
func (a *API) deprecatedImageHandler(w http.ResponseWriter, r *http.Request) {
	a.pickAndRedirect(w, r, true)
}

func (a *API) pickAndRedirect(w http.ResponseWriter, r *http.Request, grayscale bool) {
	p, err := a.parseParams(r)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	if grayscale {
		p.task.Grayscale = true
	}

	var img catalog.Image
	if id := r.URL.Query().Get("image"); id != "" {
		img, err = a.Catalog.Get(id)
	} else {
		img, err = a.Catalog.GetRandom()
	}
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}

	task, err := a.resolveTask(img, p)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	a.redirect(w, r, img, task, false)
}

// seedImageHandler serves the /seed/{seed}/... routes; the seed maps
// deterministically onto a catalog image, so the redirect is cacheable.
func (a *API) seedImageHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.parseParams(r)
	if err != nil {
		a.badRequest(w, err)
		return
	}

	img, err := a.Catalog.GetRandomWithSeed(chi.URLParam(r, "seed"))
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}

	task, err := a.resolveTask(img, p)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	a.redirect(w, r, img, task, true)
}

// redirect sends the client to the signed canonical variant URL on the
// image service host.
func (a *API) redirect(w http.ResponseWriter, r *http.Request, img catalog.Image, task render.Task, cacheable bool) {
	path := task.Path(img.ID)
	signature, err := a.HMAC.Create(path)
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	if cacheable {
		w.Header().Set("Cache-Control", cacheableControl)
	}
	http.Redirect(w, r, a.ImageServiceURL+path+sep+"hmac="+signature, http.StatusFound)
}

// serveImage validates the signature against the canonical path and writes
// the rendered variant.
func (a *API) serveImage(w http.ResponseWriter, r *http.Request, img catalog.Image, task render.Task) {
	path := task.Path(img.ID)
	if err := a.HMAC.Validate(path, r.URL.Query().Get("hmac")); err != nil {
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	encoded, err := a.Renderer.Render(r.Context(), img, task)
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", cacheableControl)
	w.Header().Set("Content-Type", task.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(encoded)))
	if _, err := w.Write(encoded); err != nil {
		a.Log.WithError(err).Warn("variant write failed")
	}
}
