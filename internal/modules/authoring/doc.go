// Package authoring holds the pure rules of course authoring: how a nested
// content request becomes an owned tree, how siblings are numbered, how the
// lesson count is derived, which courses may be submitted, who may act on a
// course, and which status transitions exist.
//
// Nothing here touches storage. The course aggregate in internal/data/aggregates
// sequences these rules inside a single transaction.
package authoring
