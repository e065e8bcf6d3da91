package procurement

import (
	"sort"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// AllocationEntry maps one requested line item to the offer proposed to win it
type AllocationEntry struct {
	RfqLineItemID uuid.UUID `json:"rfq_line_item_id"`
	OfferID       uuid.UUID `json:"offer_id"`
}

// Allocation is a validated line item to offer mapping. It is only produced
// by ValidateAllocation and consumed once by the order materializer; it is
// never persisted on its own.
type Allocation struct {
	rfqID   uuid.UUID
	entries []AllocationEntry // ordered by line item position
}

// RfqID returns the round this allocation belongs to
func (a *Allocation) RfqID() uuid.UUID {
	return a.rfqID
}

// Entries returns the allocation entries in line item order
func (a *Allocation) Entries() []AllocationEntry {
	return a.entries
}

// OfferFor returns the winning offer for a line item
func (a *Allocation) OfferFor(rfqLineItemID uuid.UUID) (uuid.UUID, bool) {
	for _, e := range a.entries {
		if e.RfqLineItemID == rfqLineItemID {
			return e.OfferID, true
		}
	}
	return uuid.Nil, false
}

// OfferGroup holds the line items awarded to one offer
type OfferGroup struct {
	OfferID     uuid.UUID
	LineItemIDs []uuid.UUID // in line item position order
}

// GroupByOffer groups the allocation per winning offer. Groups and the items
// within them follow the round's line item order, so the resulting orders
// are deterministic regardless of how the caller assembled the mapping.
func (a *Allocation) GroupByOffer() []OfferGroup {
	groups := make([]OfferGroup, 0)
	index := make(map[uuid.UUID]int)
	for _, e := range a.entries {
		i, ok := index[e.OfferID]
		if !ok {
			i = len(groups)
			index[e.OfferID] = i
			groups = append(groups, OfferGroup{OfferID: e.OfferID})
		}
		groups[i].LineItemIDs = append(groups[i].LineItemIDs, e.RfqLineItemID)
	}
	return groups
}

// SuggestedAllocation is the cheapest-first default mapping offered to the
// operator for review. Line items no submitted offer covers are listed as
// unresolved instead of being guessed at.
type SuggestedAllocation struct {
	Entries    []AllocationEntry
	Unresolved []uuid.UUID
}

// SuggestAllocation picks, for every line item, the submitted offer with the
// lowest unit price among offers whose quoted quantity covers the requested
// quantity. Ties go to the earliest submitted offer, then the smallest
// participant ID, independent of insertion order.
func SuggestAllocation(rfq *Rfq) SuggestedAllocation {
	offers := rfq.SubmittedOffers()

	suggestion := SuggestedAllocation{
		Entries:    make([]AllocationEntry, 0, len(rfq.Items)),
		Unresolved: make([]uuid.UUID, 0),
	}

	for _, item := range rfq.Items {
		var best *Offer
		var bestLine *OfferLineItem
		for _, offer := range offers {
			line := offer.LineFor(item.ID)
			if line == nil || !line.Covers(item.RequestedQuantity) {
				continue
			}
			// offers are pre-sorted by submission time then participant ID,
			// so a strict comparison keeps the correct winner on ties
			if bestLine == nil || line.UnitPrice.LessThan(bestLine.UnitPrice) {
				best = offer
				bestLine = line
			}
		}
		if best == nil {
			suggestion.Unresolved = append(suggestion.Unresolved, item.ID)
			continue
		}
		suggestion.Entries = append(suggestion.Entries, AllocationEntry{
			RfqLineItemID: item.ID,
			OfferID:       best.ID,
		})
	}

	return suggestion
}

// ValidateAllocation checks a proposed mapping against the round and its
// submitted offers. All violations are collected before failing; a valid
// Allocation is returned only when every requested line item is mapped to an
// offer of this round that fully covers it.
func ValidateAllocation(rfq *Rfq, proposed []AllocationEntry) (*Allocation, error) {
	mapped := make(map[uuid.UUID]uuid.UUID, len(proposed))

	var (
		duplicateItems []string
		unknownItems   []string
		foreignOffers  []string
		uncoveredItems []string
	)

	for _, entry := range proposed {
		if _, dup := mapped[entry.RfqLineItemID]; dup {
			duplicateItems = append(duplicateItems, entry.RfqLineItemID.String())
			continue
		}
		mapped[entry.RfqLineItemID] = entry.OfferID

		if rfq.LineItem(entry.RfqLineItemID) == nil {
			unknownItems = append(unknownItems, entry.RfqLineItemID.String())
		}
		if rfq.OfferByID(entry.OfferID) == nil {
			foreignOffers = append(foreignOffers, entry.OfferID.String())
		}
	}

	for _, item := range rfq.Items {
		offerID, ok := mapped[item.ID]
		if !ok {
			uncoveredItems = append(uncoveredItems, item.ID.String())
			continue
		}
		offer := rfq.OfferByID(offerID)
		if offer == nil {
			continue // already reported as a foreign offer
		}
		line := offer.LineFor(item.ID)
		if line == nil || !line.Covers(item.RequestedQuantity) {
			uncoveredItems = append(uncoveredItems, item.ID.String())
		}
	}

	if len(duplicateItems) > 0 || len(unknownItems) > 0 || len(foreignOffers) > 0 || len(uncoveredItems) > 0 {
		details := make(map[string]any)
		if len(duplicateItems) > 0 {
			details["duplicate_items"] = duplicateItems
		}
		if len(unknownItems) > 0 {
			details["unknown_items"] = unknownItems
		}
		if len(foreignOffers) > 0 {
			details["foreign_offers"] = foreignOffers
		}
		if len(uncoveredItems) > 0 {
			details["uncovered_items"] = uncoveredItems
		}
		return nil, shared.NewDomainErrorWithDetails("VALIDATION_ERROR",
			"Allocation does not award every requested line item to a covering offer of this round", details)
	}

	// normalize to line item position order
	entries := make([]AllocationEntry, 0, len(rfq.Items))
	for _, item := range rfq.Items {
		entries = append(entries, AllocationEntry{
			RfqLineItemID: item.ID,
			OfferID:       mapped[item.ID],
		})
	}

	return &Allocation{rfqID: rfq.ID, entries: entries}, nil
}

// sortOffers orders offers by submission time, then participant ID, so every
// read of the offer list is deterministic
func sortOffers(offers []*Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if !offers[i].SubmittedAt.Equal(offers[j].SubmittedAt) {
			return offers[i].SubmittedAt.Before(offers[j].SubmittedAt)
		}
		return offers[i].ParticipantID.String() < offers[j].ParticipantID.String()
	})
}
