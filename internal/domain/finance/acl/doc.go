// Package acl is the boundary between finance and the master data contexts.
//
// A monetary document stores only the ids of its counterparty, payment
// method and acting employee. CounterpartyQueryService answers whether a
// referenced supplier or customer exists and is active, which creation
// requires. PaymentMethodQueryService and ActorQueryService resolve display
// names for responses, optionally behind a DisplayNameCache.
//
// The interfaces are implemented in infrastructure/persistence (gorm) and
// infrastructure/cache (redis).
package acl
