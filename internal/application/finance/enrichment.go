package finance

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDisplayNameTTL is used when the resolver is built without a ttl
const DefaultDisplayNameTTL = 10 * time.Minute

// DisplayNameResolver looks up payment method and actor names, consulting the
// cache first. Lookup failures leave names empty.
type DisplayNameResolver struct {
	paymentMethods acl.PaymentMethodQueryService
	actors         acl.ActorQueryService
	cache          acl.DisplayNameCache
	ttl            time.Duration
	logger         *zap.Logger
}

// NewDisplayNameResolver creates a new DisplayNameResolver. cache may be nil.
func NewDisplayNameResolver(
	paymentMethods acl.PaymentMethodQueryService,
	actors acl.ActorQueryService,
	cache acl.DisplayNameCache,
	ttl time.Duration,
	l *zap.Logger,
) *DisplayNameResolver {
	if ttl <= 0 {
		ttl = DefaultDisplayNameTTL
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &DisplayNameResolver{
		paymentMethods: paymentMethods,
		actors:         actors,
		cache:          cache,
		ttl:            ttl,
		logger:         l,
	}
}

// PaymentMethodNames resolves payment method names
func (r *DisplayNameResolver) PaymentMethodNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) map[uuid.UUID]string {
	if r == nil || r.paymentMethods == nil {
		return map[uuid.UUID]string{}
	}
	return r.resolve(ctx, tenantID, acl.DisplayNamePaymentMethod, ids, r.paymentMethods.GetPaymentMethodNames)
}

// ActorNames resolves actor names
func (r *DisplayNameResolver) ActorNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) map[uuid.UUID]string {
	if r == nil || r.actors == nil {
		return map[uuid.UUID]string{}
	}
	return r.resolve(ctx, tenantID, acl.DisplayNameActor, ids, r.actors.GetActorNames)
}

type nameLookup func(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)

func (r *DisplayNameResolver) resolve(ctx context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, ids []uuid.UUID, lookup nameLookup) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return names
	}
	log := logger.Enrich(ctx, logger.FromContextOr(ctx, r.logger))

	missing := ids
	if r.cache != nil {
		cached, err := r.cache.GetMany(ctx, tenantID, kind, ids)
		if err != nil {
			log.Warn("display name cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		missing = make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if name, ok := cached[id]; ok {
				names[id] = name
				continue
			}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return names
	}

	found, err := lookup(ctx, tenantID, missing)
	if err != nil {
		log.Warn("display name lookup failed", zap.String("kind", string(kind)), zap.Error(err))
		return names
	}
	for id, name := range found {
		names[id] = name
	}
	if r.cache != nil && len(found) > 0 {
		if err := r.cache.SetMany(ctx, tenantID, kind, found, r.ttl); err != nil {
			log.Warn("display name cache write failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return names
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// EnrichingDocumentService decorates DocumentOperations with display names.
// Enrichment runs after the wrapped operation returns and never changes its outcome.
type EnrichingDocumentService struct {
	next     DocumentOperations
	resolver *DisplayNameResolver
}

// NewEnrichingDocumentService wraps next
func NewEnrichingDocumentService(next DocumentOperations, resolver *DisplayNameResolver) *EnrichingDocumentService {
	return &EnrichingDocumentService{next: next, resolver: resolver}
}

func (s *EnrichingDocumentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	return s.one(ctx, tenantID)(s.next.Create(ctx, tenantID, req))
}

func (s *EnrichingDocumentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	return s.one(ctx, tenantID)(s.next.Get(ctx, tenantID, id))
}

func (s *EnrichingDocumentService) List(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error) {
	docs, total, err := s.next.List(ctx, tenantID, filter)
	if err == nil {
		s.enrich(ctx, tenantID, docs)
	}
	return docs, total, err
}

func (s *EnrichingDocumentService) ListOverdue(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error) {
	docs, total, err := s.next.ListOverdue(ctx, tenantID, filter)
	if err == nil {
		s.enrich(ctx, tenantID, docs)
	}
	return docs, total, err
}

func (s *EnrichingDocumentService) Summary(ctx context.Context, tenantID uuid.UUID, direction string) (*SummaryResponse, error) {
	return s.next.Summary(ctx, tenantID, direction)
}

func (s *EnrichingDocumentService) Settle(ctx context.Context, tenantID, id uuid.UUID, req SettleDocumentRequest) (*DocumentResponse, error) {
	return s.one(ctx, tenantID)(s.next.Settle(ctx, tenantID, id, req))
}

func (s *EnrichingDocumentService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	return s.one(ctx, tenantID)(s.next.Cancel(ctx, tenantID, id))
}

func (s *EnrichingDocumentService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.next.Remove(ctx, tenantID, id)
}

func (s *EnrichingDocumentService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	return s.one(ctx, tenantID)(s.next.Update(ctx, tenantID, id, req))
}

func (s *EnrichingDocumentService) one(ctx context.Context, tenantID uuid.UUID) func(*DocumentResponse, error) (*DocumentResponse, error) {
	return func(doc *DocumentResponse, err error) (*DocumentResponse, error) {
		if err != nil || doc == nil {
			return doc, err
		}
		docs := []DocumentResponse{*doc}
		s.enrich(ctx, tenantID, docs)
		return &docs[0], nil
	}
}

func (s *EnrichingDocumentService) enrich(ctx context.Context, tenantID uuid.UUID, docs []DocumentResponse) {
	if len(docs) == 0 || s.resolver == nil {
		return
	}
	var methodIDs, actorIDs []uuid.UUID
	for i := range docs {
		if docs[i].PaymentMethodID != nil {
			methodIDs = append(methodIDs, *docs[i].PaymentMethodID)
		}
		if docs[i].SettledBy != nil {
			actorIDs = append(actorIDs, *docs[i].SettledBy)
		}
		if docs[i].CreatedBy != nil {
			actorIDs = append(actorIDs, *docs[i].CreatedBy)
		}
	}
	methods := s.resolver.PaymentMethodNames(ctx, tenantID, methodIDs)
	actors := s.resolver.ActorNames(ctx, tenantID, actorIDs)
	for i := range docs {
		if id := docs[i].PaymentMethodID; id != nil {
			docs[i].PaymentMethodName = methods[*id]
		}
		if id := docs[i].SettledBy; id != nil {
			docs[i].SettledByName = actors[*id]
		}
		if id := docs[i].CreatedBy; id != nil {
			docs[i].CreatedByName = actors[*id]
		}
	}
}

var _ DocumentOperations = (*EnrichingDocumentService)(nil)
