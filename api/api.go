// Package api exposes the HTTP surface: catalog listing and info routes,
// short-form routes that redirect to signed canonical variant URLs, and the
// variant routes that validate the signature and serve rendered bytes.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pixelforge/pixelforge/catalog"
	"github.com/pixelforge/pixelforge/json"
	"github.com/pixelforge/pixelforge/logging"
	"github.com/pixelforge/pixelforge/metrics"
	"github.com/pixelforge/pixelforge/render"
	"github.com/pixelforge/pixelforge/sign"
)

// List pagination bounds.
const (
	defaultListLimit = 30
	maxListLimit     = 100
)

// defaultBlurAmount is used when ?blur is given without a value.
const defaultBlurAmount = 5

// API wires the catalog, renderer and signer into an HTTP router.
type API struct {
	Catalog  catalog.Provider
	Renderer *render.Renderer
	Log      logging.Logger
	HMAC     *sign.HMAC

	// RootURL is the public base URL of the API routes; ImageServiceURL is
	// the base URL variant redirects point at.
	RootURL         string
	ImageServiceURL string

	// MaxSize bounds requested dimensions; BlurMin and BlurMax bound the
	// blur amount.
	MaxSize int
	BlurMin int
	BlurMax int

	// Collector serves /metrics when set.
	Collector *metrics.Collector

	// RateLimit is the per-client requests per minute; zero disables.
	RateLimit int
}

// sizePattern matches a dimension with an optional file extension, so that
// /id/1/100/100.png reaches a handler and fails with a clear error instead
// of a 404.
const sizePattern = `\d+(?:\.[a-zA-Z]+)?`

// Router builds the route table.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(traceID)
	r.Use(logging.HTTPMiddleware(a.Log))
	r.Use(a.recoverer)
	r.Use(noCacheByDefault)
	if a.RateLimit > 0 {
		r.Use(newRateLimiter(a.RateLimit, time.Minute).middleware)
	}
	r.Use(middleware.RedirectSlashes)

	r.Get("/health", a.healthHandler)
	if a.Collector != nil {
		r.Method(http.MethodGet, "/metrics", a.Collector.Handler())
	}

	r.Get("/v2/list", a.listHandler)
	r.Get("/list", a.deprecatedListHandler)
	r.Get("/id/{id}/info", a.infoHandler)
	r.Get("/seed/{seed}/info", a.seedInfoHandler)

	r.Get("/{size:"+sizePattern+"}", a.randomImageHandler)
	r.Get("/{width:\\d+}/{height:"+sizePattern+"}", a.randomImageHandler)
	r.Get("/id/{id}/{size:"+sizePattern+"}", a.imageRedirectHandler)
	r.Get("/id/{id}/{width:\\d+}/{height:"+sizePattern+"}", a.imageHandler)
	r.Get("/seed/{seed}/{size:"+sizePattern+"}", a.seedImageHandler)
	r.Get("/seed/{seed}/{width:\\d+}/{height:"+sizePattern+"}", a.seedImageHandler)
	r.Get("/g/{size:"+sizePattern+"}", a.deprecatedImageHandler)
	r.Get("/g/{width:\\d+}/{height:"+sizePattern+"}", a.deprecatedImageHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "page not found", http.StatusNotFound)
	})

	return r
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "OK")
}

// ListImage is a catalog entry plus its canonical download URL.
type ListImage struct {
	catalog.Image
	DownloadURL string `json:"download_url"`
}

func (a *API) listImage(img catalog.Image) ListImage {
	return ListImage{
		Image:       img,
		DownloadURL: fmt.Sprintf("%s/id/%s/%d/%d", a.RootURL, img.ID, img.Width, img.Height),
	}
}

func (a *API) listHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	images, err := a.Catalog.List(page, limit)
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	out := make([]ListImage, len(images))
	for i, img := range images {
		out[i] = a.listImage(img)
	}

	var links []string
	if page > 1 {
		links = append(links, fmt.Sprintf("<%s/v2/list?page=%d&limit=%d>; rel=\"prev\"", a.RootURL, page-1, limit))
	}
	if len(images) > 0 {
		links = append(links, fmt.Sprintf("<%s/v2/list?page=%d&limit=%d>; rel=\"next\"", a.RootURL, page+1, limit))
	}
	if len(links) > 0 {
		w.Header().Set("Link", strings.Join(links, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Link")
	}

	a.writeJSON(w, r, out)
}

// DeprecatedImage is the legacy /list entry shape.
type DeprecatedImage struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Filename  string `json:"filename"`
	ID        int    `json:"id"`
	Author    string `json:"author"`
	AuthorURL string `json:"author_url"`
	PostURL   string `json:"post_url"`
}

func (a *API) deprecatedListHandler(w http.ResponseWriter, r *http.Request) {
	images, err := a.Catalog.ListAll()
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	out := make([]DeprecatedImage, len(images))
	for i, img := range images {
		id, _ := strconv.Atoi(img.ID)
		out[i] = DeprecatedImage{
			Format:    "jpeg",
			Width:     img.Width,
			Height:    img.Height,
			Filename:  img.ID + ".jpeg",
			ID:        id,
			Author:    img.Author,
			AuthorURL: img.URL,
			PostURL:   img.URL,
		}
	}
	a.writeJSON(w, r, out)
}

func (a *API) infoHandler(w http.ResponseWriter, r *http.Request) {
	img, err := a.Catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.writeJSON(w, r, a.listImage(img))
}

func (a *API) seedInfoHandler(w http.ResponseWriter, r *http.Request) {
	img, err := a.Catalog.GetRandomWithSeed(chi.URLParam(r, "seed"))
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.writeJSON(w, r, a.listImage(img))
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Log.WithError(err).Error("response encode failed")
	}
}
