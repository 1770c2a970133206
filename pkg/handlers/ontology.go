package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/ontology"
)

// OntologyHandler exposes ontology inventory stats.
type OntologyHandler struct {
	graph  *ontology.Graph
	logger *zap.Logger
}

// NewOntologyHandler creates a new OntologyHandler.
func NewOntologyHandler(graph *ontology.Graph, logger *zap.Logger) *OntologyHandler {
	return &OntologyHandler{graph: graph, logger: logger}
}

// RegisterRoutes registers the ontology handler's routes on the given mux.
func (h *OntologyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ontology/stats", h.Stats)
}

// Stats handles GET /api/ontology/stats requests.
func (h *OntologyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, h.graph.Stats()); err != nil {
		h.logger.Error("Failed to encode ontology stats", zap.Error(err))
	}
}
