package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"scentshop/internal/app"
	"scentshop/internal/domain"
)

type Handlers struct {
	Catalog *app.CatalogService
	Reviews *app.ReviewService
	// Ready reports store reachability for /health; nil means always ready.
	Ready func(ctx context.Context) error
	// ReviewLimit wraps POST /reviews; nil means unlimited.
	ReviewLimit func(http.Handler) http.Handler
}

type errorBody struct {
	Message string `json:"message"`
}

// MountHandlers registers the API under basePath ("" mounts at the root).
func (s *Server) MountHandlers(basePath string, h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	api := func(r chi.Router) {
		r.Get("/health", h.health)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/featured", h.featuredProducts)
			r.Get("/meta/scent-families", h.scentFamilies)
			r.Get("/{identifier}", h.getProduct)
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productId}", h.listReviews)
			if h.ReviewLimit != nil {
				r.With(h.ReviewLimit).Post("/", h.createReview)
			} else {
				r.Post("/", h.createReview)
			}
		})
	}

	basePath = strings.TrimRight(basePath, "/")
	if basePath == "" {
		api(s.mux)
		return
	}
	s.mux.Route(basePath, api)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Message: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// serverError logs the cause and answers with a generic message.
func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCachedJSON answers 200 with a weak ETag, or 304 when the client already has it.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeError(w, http.StatusInternalServerError, "Error encoding response")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// intParam returns the integer query value, or 0 when absent or malformed.
func intParam(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func priceParam(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.Invalid("Invalid " + name)
	}
	return &f, nil
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	status, store, code := "ok", "up", http.StatusOK
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			log.Warn().Err(err).Msg("readiness check failed")
			status, store, code = "degraded", "down", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "store": store})
}

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ProductFilter{
		ScentFamily: q.Get("scentFamily"),
		Featured:    q.Get("featured") == "true",
		Search:      q.Get("search"),
	}
	var err error
	if f.MinPrice, err = priceParam(r, "minPrice"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.MaxPrice, err = priceParam(r, "maxPrice"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.Catalog.List(r.Context(), f, intParam(r, "page"), intParam(r, "limit"))
	if err != nil {
		serverError(w, r, err, "Error fetching products")
		return
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) featuredProducts(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.GetFeatured(r.Context())
	if err != nil {
		serverError(w, r, err, "Error fetching featured products")
		return
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) scentFamilies(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.ListScentFamilies(r.Context())
	if err != nil {
		serverError(w, r, err, "Error fetching scent families")
		return
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.GetByIdentifier(r.Context(), chi.URLParam(r, "identifier"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		serverError(w, r, err, "Error fetching product")
		return
	}
	writeCachedJSON(w, r, p)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Reviews.ListByProduct(r.Context(),
		chi.URLParam(r, "productId"),
		r.URL.Query().Get("sortBy"),
		intParam(r, "page"),
		intParam(r, "limit"),
	)
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	if err != nil {
		serverError(w, r, err, "Error fetching reviews")
		return
	}
	writeCachedJSON(w, r, out)
}

type createReviewRequest struct {
	ProductID    string      `json:"productId"`
	CustomerName string      `json:"customerName"`
	Rating       json.Number `json:"rating"`
	Title        string      `json:"title"`
	Comment      string      `json:"comment"`
}

// invalidRating is non-zero so it fails the range check rather than the required check.
const invalidRating = -1

// parseRating accepts integral numbers only; absent is 0.
func parseRating(n json.Number) int {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1e6 {
		return invalidRating
	}
	return int(f)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var body createReviewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv, err := h.Reviews.Create(r.Context(), app.CreateReviewInput{
		ProductID:    body.ProductID,
		CustomerName: body.CustomerName,
		Rating:       parseRating(body.Rating),
		Title:        body.Title,
		Comment:      body.Comment,
	})
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
		return
	case err != nil:
		serverError(w, r, err, "Error creating review")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rv); err != nil {
		log.Error().Err(err).Msg("failed to write createReview body")
	}
}
