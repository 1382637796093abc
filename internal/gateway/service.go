// Package gateway implements the retrieval pipeline: request validation,
// tenant authorization, model resolution, optional keyword augmentation,
// routing to a retrieval backend, and result sanitization.
//
// Stages run strictly in order and any fatal failure short-circuits the
// rest. Optional stages (keyword augmentation, reranking) degrade: their
// failure is logged and the pipeline continues without them.
package gateway

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/retrievald/internal/keyword"
	"github.com/fyrsmithlabs/retrievald/internal/llm"
	"github.com/fyrsmithlabs/retrievald/internal/retrieval"
	"github.com/fyrsmithlabs/retrievald/internal/tenant"
)

var tracer = otel.Tracer("retrievald.gateway")

// Timeouts bound the stages that call external services. Zero means no
// bound beyond the request context.
type Timeouts struct {
	Augment  time.Duration
	Retrieve time.Duration
}

// Service runs the retrieval pipeline for authenticated callers.
type Service struct {
	members  tenant.Memberships
	index    tenant.Index
	models   llm.Registry
	router   *retrieval.Router
	timeouts Timeouts
	log      *zap.Logger
}

// NewService wires the pipeline dependencies.
func NewService(members tenant.Memberships, index tenant.Index, models llm.Registry, router *retrieval.Router, timeouts Timeouts, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		members:  members,
		index:    index,
		models:   models,
		router:   router,
		timeouts: timeouts,
		log:      log,
	}
}

// Retrieve executes the full pipeline for one request on behalf of
// callerID. On success the result set is sanitized; on failure the returned
// error carries a Kind for the transport layer.
func (s *Service) Retrieve(ctx context.Context, callerID string, req Request) (*retrieval.ResultSet, error) {
	ctx, span := tracer.Start(ctx, "gateway.retrieve")
	defer span.End()

	n, err := req.normalize()
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, callerID, n.KBIDs); err != nil {
		return nil, err
	}

	// The primary (first) knowledge base decides the owning tenant, the
	// embedding model, and the retrieval mode for the whole request.
	primary, err := s.index.Find(ctx, n.KBIDs[0])
	if err != nil {
		return nil, notFound(n.KBIDs[0], err)
	}

	embedder, err := s.models.Embedder(ctx, primary.TenantID, primary.EmbeddingModel)
	if err != nil {
		return nil, modelNotBound(err)
	}

	var reranker llm.Reranker
	if n.RerankID != "" {
		reranker, err = s.models.Reranker(ctx, primary.TenantID, n.RerankID)
		if err != nil {
			s.log.Warn("reranker unavailable, continuing without it",
				zap.String("tenant_id", primary.TenantID),
				zap.String("rerank_id", n.RerankID),
				zap.Error(err))
			reranker = nil
		}
	}

	query := n.Question
	if n.Keyword {
		query = s.augment(ctx, primary.TenantID, n.Question)
	}

	p := retrieval.Params{
		Query:               query,
		Embedder:            embedder,
		TenantID:            primary.TenantID,
		KBIDs:               n.KBIDs,
		Page:                n.Page,
		PageSize:            n.PageSize,
		SimilarityThreshold: n.Threshold,
		VectorWeight:        n.VectorWeight,
		TopK:                n.TopK,
		DocIDs:              n.DocIDs,
		Reranker:            reranker,
		Highlight:           n.Highlight,
	}

	rctx, cancel := s.bounded(ctx, s.timeouts.Retrieve)
	defer cancel()

	rs, err := s.router.Search(rctx, primary.Mode, p)
	if err != nil {
		if errors.Is(err, tenant.ErrInvalidMode) {
			return nil, invalidRequest("knowledge base %s has unsupported retrieval mode", primary.ID)
		}
		return nil, backendFailure(err)
	}

	return retrieval.Sanitize(rs), nil
}

// authorize checks that for every requested knowledge base at least one of
// the caller's tenants owns it. The check is all-or-nothing: one unowned
// knowledge base denies the whole request, and the denial never says which
// one failed.
func (s *Service) authorize(ctx context.Context, callerID string, kbIDs []string) error {
	tenants, err := s.members.TenantsOf(ctx, callerID)
	if err != nil {
		return backendFailure(err)
	}
	if len(tenants) == 0 {
		return errUnauthorized()
	}

	for _, kbID := range kbIDs {
		owned := false
		for _, tid := range tenants {
			ok, err := s.index.OwnedBy(ctx, tid, kbID)
			if err != nil {
				return backendFailure(err)
			}
			if ok {
				owned = true
				break
			}
		}
		if !owned {
			return errUnauthorized()
		}
	}
	return nil
}

// augment asks the tenant's default chat model for supplementary keywords
// and appends them to the question. Every failure here degrades to the
// original question; augmentation is strictly additive and best-effort.
func (s *Service) augment(ctx context.Context, tenantID, question string) string {
	chat, err := s.models.Chat(ctx, tenantID, "")
	if err != nil {
		s.log.Warn("chat model unavailable, skipping keyword extraction",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return question
	}

	actx, cancel := s.bounded(ctx, s.timeouts.Augment)
	defer cancel()

	kw, err := keyword.NewExtractor(chat).Extract(actx, question)
	if err != nil {
		s.log.Warn("keyword extraction failed, using original question",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return question
	}
	return keyword.Augment(question, kw)
}

func (s *Service) bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
