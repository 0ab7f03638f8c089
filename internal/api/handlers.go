package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/comicverse/txgate/internal/gate"
	"github.com/comicverse/txgate/internal/models"
	"github.com/comicverse/txgate/internal/storage"

	"github.com/go-chi/chi/v5"
)

// handleIndex returns basic service information
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "txgate",
		"version":     "1.0.0",
		"description": "Transaction-gated mutations for the comics platform",
		"endpoints": map[string]string{
			"GET /":                                 "This page - Service information",
			"GET /health":                           "Health check endpoint",
			"GET /metrics":                          "Prometheus metrics for monitoring",
			"GET|POST /characters":                  "List (?search=) or confirm a character mint",
			"GET /characters/{id}":                  "Get a character",
			"GET|POST /props":                       "List (?search=) or confirm a prop mint",
			"GET|POST /scenes":                      "List (?search=) or confirm a scene mint",
			"GET|POST /comics":                      "List or confirm a comic creation",
			"GET /comics/{comicId}":                 "Get a comic",
			"GET|POST /comics/{comicId}/cover":      "Get or replace the cover image of a comic",
			"GET|POST /comics/{comicId}/candidates": "Tally or confirm strip candidates",
			"GET|POST /prompts/purchases":           "List or confirm prompt purchases",
		},
	})
}

// handleHealth pings the store
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := models.HealthResponse{
		Status:    "healthy",
		Storage:   "ok",
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	if err := s.repository.Ping(r.Context()); err != nil {
		health.Status = "unhealthy"
		health.Storage = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// =============================================================================
// GATED MUTATIONS
// =============================================================================

type mintBody struct {
	TxHash         string `json:"txHash"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	Description    string `json:"description"`
	ArtisticStyle  string `json:"artisticStyle"`
	CreatorAddress string `json:"creatorAddress"`
}

// handleMint confirms a collectible mint
// POST /characters, /props, /scenes
func (s *Server) handleMint(kind models.MutationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body mintBody
		if err := decodeJSON(r, &body); err != nil {
			badRequest(w, r, "%v", err)
			return
		}
		s.runGate(w, r, &models.PendingMutationRequest{
			TransactionReference: strings.TrimSpace(body.TxHash),
			Kind:                 kind,
			RequesterAddress:     body.CreatorAddress,
			Claimed: models.ClaimedFields{
				Name:          body.Name,
				Image:         body.Image,
				Description:   body.Description,
				ArtisticStyle: body.ArtisticStyle,
			},
		})
	}
}

type comicBody struct {
	TxHash         string         `json:"txHash"`
	ComicID        *models.BigInt `json:"comicId"`
	Name           string         `json:"name"`
	Image          string         `json:"image"`
	Description    string         `json:"description"`
	ArtisticStyle  string         `json:"artisticStyle"`
	CreatorAddress string         `json:"creatorAddress"`
}

// handleCreateComic confirms a comic creation
// POST /comics
func (s *Server) handleCreateComic(w http.ResponseWriter, r *http.Request) {
	var body comicBody
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, r, "%v", err)
		return
	}
	s.runGate(w, r, &models.PendingMutationRequest{
		TransactionReference: strings.TrimSpace(body.TxHash),
		Kind:                 models.ComicCreate,
		RequesterAddress:     body.CreatorAddress,
		Claimed: models.ClaimedFields{
			ComicID:       body.ComicID,
			Name:          body.Name,
			Image:         body.Image,
			Description:   body.Description,
			ArtisticStyle: body.ArtisticStyle,
		},
	})
}

type candidateBody struct {
	TxHash         string          `json:"txHash"`
	StripID        *models.BigInt  `json:"stripId"`
	Name           string          `json:"name"`
	ImageURLs      []string        `json:"imageUrls"`
	Elements       json.RawMessage `json:"elements"`
	CreatorAddress string          `json:"creatorAddress"`
}

// handleCreateCandidate confirms a strip candidate. Accepts JSON or a
// multipart form with repeated imageUrls fields and elements as JSON text.
// POST /comics/{comicId}/candidates
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	comicID, err := comicIDParam(r)
	if err != nil {
		badRequest(w, r, "%v", err)
		return
	}

	var body candidateBody
	if isMultipart(r) {
		body, err = candidateFromForm(r)
	} else {
		err = decodeJSON(r, &body)
	}
	if err != nil {
		badRequest(w, r, "%v", err)
		return
	}

	s.runGate(w, r, &models.PendingMutationRequest{
		TransactionReference: strings.TrimSpace(body.TxHash),
		Kind:                 models.StripCandidateCreate,
		RequesterAddress:     body.CreatorAddress,
		Claimed: models.ClaimedFields{
			ComicID:   models.NewBigInt(comicID),
			StripID:   body.StripID,
			Name:      body.Name,
			ImageURLs: body.ImageURLs,
			Elements:  body.Elements,
		},
	})
}

func candidateFromForm(r *http.Request) (candidateBody, error) {
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		return candidateBody{}, err
	}
	form := r.MultipartForm.Value
	first := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	body := candidateBody{
		TxHash:         first("txHash"),
		Name:           first("name"),
		CreatorAddress: first("creatorAddress"),
	}
	for _, u := range form["imageUrls"] {
		if u = strings.TrimSpace(u); u != "" {
			body.ImageURLs = append(body.ImageURLs, u)
		}
	}
	if raw := first("stripId"); raw != "" {
		id, err := models.ParseBigInt(raw)
		if err != nil {
			return candidateBody{}, err
		}
		body.StripID = id
	}
	if raw := first("elements"); raw != "" {
		body.Elements = json.RawMessage(raw)
	}
	return body, nil
}

type promptBody struct {
	TxHash       string `json:"txHash"`
	Prompt       string `json:"prompt"`
	PayerAddress string `json:"payerAddress"`
}

// handlePurchasePrompt confirms a prompt payment
// POST /prompts/purchases
func (s *Server) handlePurchasePrompt(w http.ResponseWriter, r *http.Request) {
	var body promptBody
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, r, "%v", err)
		return
	}
	s.runGate(w, r, &models.PendingMutationRequest{
		TransactionReference: strings.TrimSpace(body.TxHash),
		Kind:                 models.PromptPurchase,
		RequesterAddress:     body.PayerAddress,
		Claimed:              models.ClaimedFields{Prompt: body.Prompt},
	})
}

func (s *Server) runGate(w http.ResponseWriter, r *http.Request, req *models.PendingMutationRequest) {
	result, err := s.gate.Process(r.Context(), req)
	if errors.Is(err, gate.ErrInvalidRequest) {
		badRequest(w, r, "%s", result.Detail)
		return
	}
	// infrastructure faults are logged by the gate with full context
	writeResult(w, r, result)
}

// =============================================================================
// READS
// =============================================================================

// handleListEntities lists entities of kind, newest first
// GET /characters?search=&limit=
func (s *Server) handleListEntities(kind models.MutationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entities, err := s.repository.ListEntities(r.Context(), models.EntityFilter{
			Kind:   kind,
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:  listLimit(r),
		})
		if err != nil {
			internalError(w, r, "failed to list "+kind.Collection(), err)
			return
		}
		if entities == nil {
			entities = []models.Entity{}
		}
		writeJSON(w, http.StatusOK, models.EntityListResponse{
			Kind:     kind,
			Entities: entities,
			Total:    len(entities),
		})
	}
}

// handleGetEntity returns an entity by id
// GET /characters/{id}
func (s *Server) handleGetEntity(kind models.MutationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := s.repository.GetEntity(r.Context(), kind, chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, models.ErrorDetail{Code: codeNotFound, Message: kind.Collection() + " entry not found"})
			return
		}
		if err != nil {
			internalError(w, r, "failed to get "+kind.Collection(), err)
			return
		}
		writeJSON(w, http.StatusOK, entity)
	}
}

// handleGetComic returns a comic by its on-chain id
// GET /comics/{comicId}
func (s *Server) handleGetComic(w http.ResponseWriter, r *http.Request) {
	comic, ok := s.loadComic(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, comic)
}

// handleGetCover returns the cover image of a comic
// GET /comics/{comicId}/cover
func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	comic, ok := s.loadComic(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.CoverResponse{
		ComicID:    comic.ComicID,
		CoverImage: comic.CoverImage,
		UpdatedAt:  comic.UpdatedAt,
	})
}

// handleUpdateCover replaces the cover image of a comic. This is an
// administrative path and is not transaction-gated.
// POST /comics/{comicId}/cover
func (s *Server) handleUpdateCover(w http.ResponseWriter, r *http.Request) {
	comicID, err := comicIDParam(r)
	if err != nil {
		badRequest(w, r, "%v", err)
		return
	}
	var body struct {
		CoverImage string `json:"coverImage"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, r, "%v", err)
		return
	}
	if strings.TrimSpace(body.CoverImage) == "" {
		badRequest(w, r, "coverImage is required")
		return
	}

	comic, err := s.repository.UpdateComicCover(r.Context(), comicID, body.CoverImage)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, models.ErrorDetail{Code: codeNotFound, Message: "comic not found"})
		return
	}
	if err != nil {
		internalError(w, r, "failed to update cover", err)
		return
	}
	writeJSON(w, http.StatusOK, models.CoverResponse{
		ComicID:    comic.ComicID,
		CoverImage: comic.CoverImage,
		UpdatedAt:  comic.UpdatedAt,
	})
}

// handleListCandidates returns the live tally of a comic
// GET /comics/{comicId}/candidates
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	comicID, err := comicIDParam(r)
	if err != nil {
		badRequest(w, r, "%v", err)
		return
	}
	tally, err := s.tallier.Tally(r.Context(), comicID)
	if err != nil {
		internalError(w, r, "failed to tally candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func (s *Server) loadComic(w http.ResponseWriter, r *http.Request) (*models.Entity, bool) {
	comicID, err := comicIDParam(r)
	if err != nil {
		badRequest(w, r, "%v", err)
		return nil, false
	}
	comic, err := s.repository.GetComic(r.Context(), comicID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, models.ErrorDetail{Code: codeNotFound, Message: "comic not found"})
		return nil, false
	}
	if err != nil {
		internalError(w, r, "failed to get comic", err)
		return nil, false
	}
	return comic, true
}
