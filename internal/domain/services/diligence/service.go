package diligence

import (
	"context"

	"diligence/internal/domain/models/diligence"
)

// DiligenceService is the orchestration engine consumed by the UI and CLI layers.
// Background enrichment is fire-and-forget; callers observe progress by polling Get.
type DiligenceService interface {
	// Submit creates a Draft package and starts verification and decomposition
	// in the background. Returns before any collaborator is called.
	Submit(ctx context.Context, req *SubmitRequest) (string, error)

	// Get returns a snapshot of the package
	// Returns domain.ErrNotFound for unknown ids
	Get(ctx context.Context, packageID string) (*diligence.Package, error)

	// List returns all packages, newest first
	List(ctx context.Context) ([]*diligence.Package, error)

	// UpdateItemStatus applies a user decision to an item
	// Returns domain.ErrInvalidTransition for edges the item state machine lacks
	UpdateItemStatus(ctx context.Context, req *UpdateItemStatusRequest) (*diligence.Package, error)

	// ReplaceItemEvidence overwrites an item's evidence list with exactly req.Evidence
	// Callers compute the final list (add = append, remove = filter) before calling
	ReplaceItemEvidence(ctx context.Context, req *ReplaceEvidenceRequest) (*diligence.Package, error)

	// RetryItemEvidence re-runs the Evidence Matcher for a Pending investor item in the background
	RetryItemEvidence(ctx context.Context, packageID, itemID string) error

	// AddFounderRequest appends a founder-authored item in Awaiting Response
	AddFounderRequest(ctx context.Context, req *AddFounderRequestRequest) (*diligence.Item, error)

	// SetInvestorPrincipal links the investor to a known principal (GENESIS_PRINCIPAL)
	SetInvestorPrincipal(ctx context.Context, packageID, principalID string) (*diligence.Package, error)

	// ConfirmInvestorAndAnalyze binds the investor to a URL (CONFIRMED) and starts site analysis
	ConfirmInvestorAndAnalyze(ctx context.Context, packageID, rawURL string) (*diligence.Package, error)

	// Share issues the access link and passcode. Idempotent: a shared package
	// returns its existing credentials.
	Share(ctx context.Context, packageID string) (*ShareResult, error)

	// RotateShareAccess regenerates link and passcode, invalidating the old ones
	RotateShareAccess(ctx context.Context, packageID string) (*ShareResult, error)

	// CompletePackage moves a Shared package to Complete
	CompletePackage(ctx context.Context, packageID string) (*diligence.Package, error)

	// ListPrincipals returns the known-principal registry
	ListPrincipals(ctx context.Context) []diligence.Principal

	// ListDocuments returns the vault documents available as evidence
	ListDocuments(ctx context.Context) ([]diligence.Document, error)

	// Drain waits for in-flight background tasks or ctx expiry
	Drain(ctx context.Context) error
}

// SubmitRequest is the DTO for submitting a raw investor request
type SubmitRequest struct {
	InvestorName string                  `json:"investor_name"`
	RawText      string                  `json:"raw_text"`
	Method       diligence.RequestMethod `json:"method"` // defaults to Email
}

// UpdateItemStatusRequest is the DTO for a user decision on an item
type UpdateItemStatusRequest struct {
	PackageID string               `json:"-"`
	ItemID    string               `json:"-"`
	Status    diligence.ItemStatus `json:"status"`
}

// ReplaceEvidenceRequest is the DTO for a full evidence replacement
type ReplaceEvidenceRequest struct {
	PackageID string               `json:"-"`
	ItemID    string               `json:"-"`
	Evidence  []diligence.Evidence `json:"evidence"`
}

// AddFounderRequestRequest is the DTO for a new founder-authored item
type AddFounderRequestRequest struct {
	PackageID string             `json:"-"`
	Category  diligence.Category `json:"category"` // defaults to Other
	Request   string             `json:"request"`
}

// ShareResult carries the sharing credentials of a package
type ShareResult struct {
	PackageID      string `json:"package_id"`
	SharingLink    string `json:"sharing_link"`
	AccessPasscode string `json:"access_passcode"`
	Reused         bool   `json:"reused"` // true when an existing link was returned
}
