package handler

import (
	"log/slog"
	"net/http"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
	"diligence/internal/httputil"
)

// DiligenceHandler exposes the diligence engine over HTTP
type DiligenceHandler struct {
	service svc.DiligenceService
	logger  *slog.Logger
}

// NewDiligenceHandler creates a new diligence handler
func NewDiligenceHandler(service svc.DiligenceService, logger *slog.Logger) *DiligenceHandler {
	return &DiligenceHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts every diligence route on mux
func (h *DiligenceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/packages", h.ListPackages)
	mux.HandleFunc("POST /api/packages", h.SubmitPackage)
	mux.HandleFunc("GET /api/packages/{id}", h.GetPackage)

	mux.HandleFunc("PATCH /api/packages/{id}/items/{itemId}/status", h.UpdateItemStatus)
	mux.HandleFunc("PUT /api/packages/{id}/items/{itemId}/evidence", h.ReplaceItemEvidence)
	mux.HandleFunc("POST /api/packages/{id}/items/{itemId}/retry", h.RetryItemEvidence)
	mux.HandleFunc("POST /api/packages/{id}/founder-requests", h.AddFounderRequest)

	mux.HandleFunc("PUT /api/packages/{id}/investor/principal", h.SetInvestorPrincipal)
	mux.HandleFunc("POST /api/packages/{id}/investor/confirm", h.ConfirmInvestor)

	mux.HandleFunc("POST /api/packages/{id}/share", h.Share)
	mux.HandleFunc("POST /api/packages/{id}/share/rotate", h.RotateShareAccess)
	mux.HandleFunc("POST /api/packages/{id}/complete", h.CompletePackage)

	mux.HandleFunc("GET /api/principals", h.ListPrincipals)
	mux.HandleFunc("GET /api/documents", h.ListDocuments)
}

// HealthCheck reports liveness
// GET /health
func (h *DiligenceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPackages returns all packages, newest first
// GET /api/packages
func (h *DiligenceHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.service.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if pkgs == nil {
		pkgs = []*models.Package{}
	}
	httputil.RespondJSON(w, http.StatusOK, pkgs)
}

type submitResponse struct {
	ID string `json:"id"`
}

// SubmitPackage accepts a raw investor request. Enrichment continues after
// the response; poll GetPackage for progress.
// POST /api/packages
func (h *DiligenceHandler) SubmitPackage(w http.ResponseWriter, r *http.Request) {
	var req svc.SubmitRequest
	if !parseBody(w, r, &req) {
		return
	}

	id, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Debug("package accepted", "package_id", id, "user_id", httputil.GetUserID(r))
	w.Header().Set("Location", "/api/packages/"+id)
	httputil.RespondJSON(w, http.StatusAccepted, submitResponse{ID: id})
}

// GetPackage returns a package snapshot
// GET /api/packages/{id}
func (h *DiligenceHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pkg)
}

// UpdateItemStatus applies a decision to one item
// PATCH /api/packages/{id}/items/{itemId}/status
func (h *DiligenceHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req svc.UpdateItemStatusRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.PackageID = r.PathValue("id")
	req.ItemID = r.PathValue("itemId")

	pkg, err := h.service.UpdateItemStatus(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pkg)
}

// ReplaceItemEvidence overwrites an item's evidence list
// PUT /api/packages/{id}/items/{itemId}/evidence
func (h *DiligenceHandler) ReplaceItemEvidence(w http.ResponseWriter, r *http.Request) {
	var req svc.ReplaceEvidenceRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.PackageID = r.PathValue("id")
	req.ItemID = r.PathValue("itemId")

	pkg, err := h.service.ReplaceItemEvidence(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pkg)
}

// RetryItemEvidence queues another evidence lookup for a Pending item
// POST /api/packages/{id}/items/{itemId}/retry
func (h *DiligenceHandler) RetryItemEvidence(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RetryItemEvidence(r.Context(), r.PathValue("id"), r.PathValue("itemId")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// AddFounderRequest appends a founder-authored item
// POST /api/packages/{id}/founder-requests
func (h *DiligenceHandler) AddFounderRequest(w http.ResponseWriter, r *http.Request) {
	var req svc.AddFounderRequestRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.PackageID = r.PathValue("id")

	item, err := h.service.AddFounderRequest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, item)
}

type setPrincipalRequest struct {
	PrincipalID string `json:"principal_id"`
}

// SetInvestorPrincipal links the investor to a known principal
// PUT /api/packages/{id}/investor/principal
func (h *DiligenceHandler) SetInvestorPrincipal(w http.ResponseWriter, r *http.Request) {
	var req setPrincipalRequest
	if !parseBody(w, r, &req) {
		return
	}

	pkg, err := h.service.SetInvestorPrincipal(r.Context(), r.PathValue("id"), req.PrincipalID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pkg)
}

type confirmInvestorRequest struct {
	URL string `json:"url"`
}

// ConfirmInvestor binds the investor to a URL and starts site analysis
// POST /api/packages/{id}/investor/confirm
func (h *DiligenceHandler) ConfirmInvestor(w http.ResponseWriter, r *http.Request) {
	var req confirmInvestorRequest
	if !parseBody(w, r, &req) {
		return
	}

	pkg, err := h.service.ConfirmInvestorAndAnalyze(r.Context(), r.PathValue("id"), req.URL)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, pkg)
}

// Share issues, or returns the existing, link and passcode
// POST /api/packages/{id}/share
func (h *DiligenceHandler) Share(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Share(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// RotateShareAccess replaces the link and passcode
// POST /api/packages/{id}/share/rotate
func (h *DiligenceHandler) RotateShareAccess(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RotateShareAccess(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	h.logger.Info("share access rotated", "package_id", result.PackageID, "user_id", httputil.GetUserID(r))
	httputil.RespondJSON(w, http.StatusOK, result)
}

// CompletePackage closes a shared package
// POST /api/packages/{id}/complete
func (h *DiligenceHandler) CompletePackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.service.CompletePackage(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pkg)
}

// ListPrincipals returns the known-principal registry
// GET /api/principals
func (h *DiligenceHandler) ListPrincipals(w http.ResponseWriter, r *http.Request) {
	principals := h.service.ListPrincipals(r.Context())
	if principals == nil {
		principals = []models.Principal{}
	}
	httputil.RespondJSON(w, http.StatusOK, principals)
}

// ListDocuments returns the vault documents available as evidence
// GET /api/documents
func (h *DiligenceHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}
