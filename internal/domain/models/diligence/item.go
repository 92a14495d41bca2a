package diligence

// InvestorAuthorID marks items authored by the requesting investor.
const InvestorAuthorID = "investor"

// Category buckets a request item.
type Category string

const (
	CategoryFinancials Category = "Financials"
	CategoryLegal      Category = "Legal"
	CategoryTeam       Category = "Team"
	CategoryIP         Category = "IP"
	CategoryMarket     Category = "Market"
	CategoryProduct    Category = "Product"
	CategoryOther      Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFinancials,
	CategoryLegal,
	CategoryTeam,
	CategoryIP,
	CategoryMarket,
	CategoryProduct,
	CategoryOther,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ItemStatus is the per-item lifecycle state.
type ItemStatus string

const (
	ItemPending          ItemStatus = "Pending"
	ItemSuggested        ItemStatus = "Suggested"
	ItemApproved         ItemStatus = "Approved"
	ItemDeferred         ItemStatus = "Deferred"
	ItemDenied           ItemStatus = "Denied"
	ItemAwaitingResponse ItemStatus = "Awaiting Response"
)

// Edges of the item state machine. Pending→Suggested is only taken by
// evidence enrichment; the decision edges are only taken by users.
var (
	enrichmentEdges = map[ItemStatus][]ItemStatus{
		ItemPending: {ItemSuggested},
	}
	investorDecisionEdges = map[ItemStatus][]ItemStatus{
		ItemSuggested: {ItemApproved, ItemDeferred, ItemDenied},
	}
	founderDecisionEdges = map[ItemStatus][]ItemStatus{
		ItemAwaitingResponse: {ItemApproved, ItemDeferred, ItemDenied},
	}
)

// Evidence references a vault document believed to answer an item.
type Evidence struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Relevance    string `json:"relevance"`
}

// SuggestedResponse is the Evidence Matcher's answer for one item.
type SuggestedResponse struct {
	ConfidenceScore int        `json:"confidence_score"` // 0-100
	Summary         string     `json:"summary"`
	Evidence        []Evidence `json:"evidence"`
}

// Item is one ask-and-answer unit within a package.
type Item struct {
	ID                string             `json:"id"`
	AuthorID          string             `json:"author_id"`
	Category          Category           `json:"category"`
	Request           string             `json:"request"`
	Status            ItemStatus         `json:"status"`
	SuggestedResponse *SuggestedResponse `json:"suggested_response,omitempty"`
	EvidenceError     *string            `json:"evidence_error,omitempty"`
}

// IsInvestorItem reports whether the investor authored the item.
func (i *Item) IsInvestorItem() bool {
	return i.AuthorID == InvestorAuthorID
}

// CanDecide reports whether a user decision may move the item to next.
func (i *Item) CanDecide(next ItemStatus) bool {
	edges := investorDecisionEdges
	if !i.IsInvestorItem() {
		edges = founderDecisionEdges
	}
	return hasEdge(edges, i.Status, next)
}

// CanEnrich reports whether evidence enrichment may move the item to Suggested.
func (i *Item) CanEnrich() bool {
	return i.IsInvestorItem() && hasEdge(enrichmentEdges, i.Status, ItemSuggested)
}

// IsTerminal reports whether the item has no outgoing edges left.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemApproved || s == ItemDeferred || s == ItemDenied
}

func hasEdge(edges map[ItemStatus][]ItemStatus, from, to ItemStatus) bool {
	for _, candidate := range edges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ClampScore forces collaborator scores into [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (i Item) clone() Item {
	out := i
	out.EvidenceError = cloneString(i.EvidenceError)
	if i.SuggestedResponse != nil {
		resp := *i.SuggestedResponse
		resp.Evidence = cloneEvidence(i.SuggestedResponse.Evidence)
		out.SuggestedResponse = &resp
	}
	return out
}

func cloneEvidence(in []Evidence) []Evidence {
	if in == nil {
		return nil
	}
	out := make([]Evidence, len(in))
	copy(out, in)
	return out
}
