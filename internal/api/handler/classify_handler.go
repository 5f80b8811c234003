package handler

import (
	"encoding/json"
	"net/http"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
)

// ClassifyRequest carries a taxonomy document and the messages to score.
type ClassifyRequest struct {
	Taxonomy json.RawMessage `json:"taxonomy" swaggertype:"object"`
	Messages []model.Message `json:"messages"`
}

// ClassifyResponse lists one classification per message, in request order.
type ClassifyResponse struct {
	Classifications []model.Classification `json:"classifications"`
	Count           int                    `json:"count"`
}

// Classify scores messages against a taxonomy
// @Summary Classify messages
// @Description Assign each message to the best matching taxonomy category by keyword overlap. A missing or malformed taxonomy falls back to the default category.
// @Tags classification
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Taxonomy and messages"
// @Success 200 {object} ClassifyResponse
// @Failure 400 {object} ErrorResponse
// @Router /classify [post]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tax := pipeline.LoadTaxonomy(req.Taxonomy)
	out, err := h.svc.ClassifyBatch(r.Context(), tax, req.Messages)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{Classifications: out, Count: len(out)})
}
