package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/retrievald/internal/tenant"
)

// Router dispatches a search to the backend configured for a retrieval
// mode. Exactly two modes exist, so the mapping is closed at construction.
//
// The mode is decided by the request's primary (first) knowledge base; all
// knowledge bases in one request are served by that one backend. See the
// gateway for where the primary record is resolved.
type Router struct {
	retrievers map[tenant.RetrievalMode]Retriever
}

// NewRouter creates a router over the two backends.
func NewRouter(vector, graph Retriever) *Router {
	return &Router{
		retrievers: map[tenant.RetrievalMode]Retriever{
			tenant.ModeVector:         vector,
			tenant.ModeKnowledgeGraph: graph,
		},
	}
}

// Search routes to the backend for mode and records metrics around the
// call. Backend errors are wrapped as ErrBackendFailure.
func (r *Router) Search(ctx context.Context, mode tenant.RetrievalMode, p Params) (*ResultSet, error) {
	ret, ok := r.retrievers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", tenant.ErrInvalidMode, mode)
	}

	start := time.Now()
	rs, err := ret.Search(ctx, p)
	SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		SearchesTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}

	SearchesTotal.WithLabelValues(string(mode), "success").Inc()
	ChunksReturned.Observe(float64(len(rs.Chunks)))
	return rs, nil
}
