package diligence

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateItemID is returned when an appended item reuses an id.
var ErrDuplicateItemID = errors.New("duplicate item id")

// RequestMethod records how the investor's request reached the company.
type RequestMethod string

const (
	MethodEmail    RequestMethod = "Email"
	MethodVerbal   RequestMethod = "Verbal"
	MethodPlatform RequestMethod = "Platform"
)

// PackageStatus is the sharing lifecycle of a package.
type PackageStatus string

const (
	PackageDraft    PackageStatus = "Draft"
	PackageShared   PackageStatus = "Shared"
	PackageComplete PackageStatus = "Complete"
)

// EnrichmentStatus tracks the background decomposition + evidence run.
type EnrichmentStatus string

const (
	EnrichmentPending  EnrichmentStatus = "pending"
	EnrichmentRunning  EnrichmentStatus = "running"
	EnrichmentComplete EnrichmentStatus = "complete"
	EnrichmentPartial  EnrichmentStatus = "partial" // finished, at least one item lookup failed
	EnrichmentFailed   EnrichmentStatus = "failed"  // classification failed, no items
)

// IsTerminal reports whether the background run has finished.
func (s EnrichmentStatus) IsTerminal() bool {
	return s == EnrichmentComplete || s == EnrichmentPartial || s == EnrichmentFailed
}

// EnrichmentStage names the collaborator boundary a failure came from.
type EnrichmentStage string

const (
	StageClassification EnrichmentStage = "classification"
	StageEvidence       EnrichmentStage = "evidence"
	StageReputation     EnrichmentStage = "reputation"
	StageAnalysis       EnrichmentStage = "analysis"
)

// EnrichmentFailure is the most recent background failure recorded on a package.
type EnrichmentFailure struct {
	Stage   EnrichmentStage `json:"stage"`
	Message string          `json:"message"`
	At      time.Time       `json:"at"`
}

// Package is one investor's diligence engagement: the aggregate root that
// every background task mutates through the package repository.
type Package struct {
	ID              string             `json:"id"`
	InvestorName    string             `json:"investor_name"`
	Method          RequestMethod      `json:"method"`
	Status          PackageStatus      `json:"status"`
	InvestorProfile InvestorProfile    `json:"investor_profile"`
	Items           []Item             `json:"items"`
	SharingLink     *string            `json:"sharing_link,omitempty"`
	AccessPasscode  *string            `json:"access_passcode,omitempty"`
	SharedAt        *time.Time         `json:"shared_at,omitempty"`
	Enrichment      EnrichmentStatus   `json:"enrichment"`
	LastError       *EnrichmentFailure `json:"last_error,omitempty"`
	Version         uint64             `json:"version"` // +1 on every stored mutation
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewPackage builds a freshly submitted package.
func NewPackage(id, investorName string, method RequestMethod, now time.Time) *Package {
	return &Package{
		ID:           id,
		InvestorName: investorName,
		Method:       method,
		Status:       PackageDraft,
		InvestorProfile: InvestorProfile{
			Status: InvestorPendingVerification,
		},
		Items:      []Item{},
		Enrichment: EnrichmentPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FindItem returns a pointer into p.Items for in-place mutation, or nil.
func (p *Package) FindItem(itemID string) *Item {
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			return &p.Items[i]
		}
	}
	return nil
}

// HasItem reports whether an item id is already used in the package.
func (p *Package) HasItem(itemID string) bool {
	return p.FindItem(itemID) != nil
}

// AppendItems adds items at the end of the package. Nothing is appended when
// any id is already used in the package or repeats within items.
func (p *Package) AppendItems(items ...Item) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] || p.HasItem(item.ID) {
			return fmt.Errorf("%w: %q", ErrDuplicateItemID, item.ID)
		}
		seen[item.ID] = true
	}
	p.Items = append(p.Items, items...)
	return nil
}

// InvestorItems returns the ids of investor-authored items in arrival order.
func (p *Package) InvestorItems() []string {
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		if item.IsInvestorItem() {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// Settled is the completion signal for polling consumers: enrichment has
// finished and verification has moved past the automatic lookup.
func (p *Package) Settled() bool {
	return p.Enrichment.IsTerminal() && p.InvestorProfile.Status != InvestorPendingVerification
}

// RecordFailure stores a tagged background failure.
func (p *Package) RecordFailure(stage EnrichmentStage, err error, at time.Time) {
	p.LastError = &EnrichmentFailure{Stage: stage, Message: err.Error(), At: at}
}

// Clone returns a deep copy. Repositories hand out clones so readers never
// alias state a background task is mutating.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	out := *p
	out.InvestorProfile = p.InvestorProfile.clone()
	out.Items = make([]Item, len(p.Items))
	for i := range p.Items {
		out.Items[i] = p.Items[i].clone()
	}
	out.SharingLink = cloneString(p.SharingLink)
	out.AccessPasscode = cloneString(p.AccessPasscode)
	if p.SharedAt != nil {
		t := *p.SharedAt
		out.SharedAt = &t
	}
	if p.LastError != nil {
		e := *p.LastError
		out.LastError = &e
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
