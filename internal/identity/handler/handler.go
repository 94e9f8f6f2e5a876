package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"minkyc/internal/identity/models"
	"minkyc/internal/platform/metrics"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
	"minkyc/pkg/platform/httputil"
	authmw "minkyc/pkg/platform/middleware/auth"
	"minkyc/pkg/platform/middleware/metadata"
	"minkyc/pkg/platform/middleware/request"
	"minkyc/pkg/platform/middleware/requesttime"
	"minkyc/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// Service defines the identity operations exposed over HTTP.
type Service interface {
	CreateIdentity(ctx context.Context, owner domain.OwnerID, commitment domain.Digest) (*models.IdentityRecord, error)
	GetIdentity(ctx context.Context, identity domain.Address) (*models.IdentityRecord, error)
	ListIdentities(ctx context.Context, owner domain.OwnerID) ([]*models.IdentityRecord, error)
	RegisterCommitment(ctx context.Context, identity domain.Address, commitment domain.Digest, caller domain.OwnerID) (*models.IdentityRecord, error)
	VerifyProof(ctx context.Context, identity domain.Address, proof []byte, requirementHash domain.Digest, caller domain.OwnerID) (*models.ProofReceipt, error)
	RevokeIdentity(ctx context.Context, identity domain.Address, caller domain.OwnerID) (*models.IdentityRecord, error)
	GetReceipt(ctx context.Context, identity domain.Address, proofHash domain.Digest) (*models.ProofReceipt, error)
	ListReceipts(ctx context.Context, identity domain.Address) ([]*models.ProofReceipt, error)
	ConsumedProofs(ctx context.Context, identity domain.Address, proofHashes []domain.Digest) ([]*models.ProofReceipt, error)
	RequirementDigest(ctx context.Context, req models.Requirement) (models.RequirementRequest, domain.Digest, error)
}

// Handler serves the identity registry routes.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.HTTP
	jwtValidator authmw.JWTValidator
}

// New creates a new identity Handler. httpMetrics may be nil.
func New(service Service, jwtValidator authmw.JWTValidator, httpMetrics *metrics.HTTP, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		metrics:      httpMetrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(request.Recovery(h.logger))
	router.Use(request.RequestID)
	router.Use(request.Logger(h.logger))
	router.Use(chimw.Timeout(requestTimeout))
	router.Use(request.ContentTypeJSON)
	if h.metrics != nil {
		router.Use(h.metrics.Middleware)
	}
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(authmw.RequireAuth(h.jwtValidator, h.logger))

	router.Route("/identities", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{address}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/commitment", h.handleRegisterCommitment)
			r.Post("/verifications", h.handleVerify)
			r.Post("/revoke", h.handleRevoke)
			r.Get("/receipts", h.handleListReceipts)
			r.Get("/receipts/{proof_hash}", h.handleGetReceipt)
			r.Post("/receipts/lookup", h.handleLookupReceipts)
		})
	})
	router.Post("/requirements/digest", h.handleRequirementDigest)

	r.Mount("/", router)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commitmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid create identity request", err)
		return
	}
	commitment, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, "invalid commitment", err)
		return
	}

	rec, err := h.service.CreateIdentity(ctx, requestcontext.Caller(ctx), commitment)
	if err != nil {
		h.writeError(ctx, w, "failed to create identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIdentityResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recs, err := h.service.ListIdentities(ctx, requestcontext.Caller(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to list identities", err)
		return
	}
	resp := identityListResponse{Identities: make([]identityResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Identities = append(resp.Identities, toIdentityResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	rec, err := h.service.GetIdentity(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to get identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(rec))
}

func (h *Handler) handleRegisterCommitment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	var req commitmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid register commitment request", err)
		return
	}
	commitment, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, "invalid commitment", err)
		return
	}

	rec, err := h.service.RegisterCommitment(ctx, addr, commitment, requestcontext.Caller(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to register commitment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(rec))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	var req verificationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid verification request", err)
		return
	}
	proof, requirementHash, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, "invalid verification request", err)
		return
	}

	receipt, err := h.service.VerifyProof(ctx, addr, proof, requirementHash, requestcontext.Caller(ctx))
	if err != nil {
		h.writeError(ctx, w, "proof verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toReceiptResponse(receipt))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	rec, err := h.service.RevokeIdentity(ctx, addr, requestcontext.Caller(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to revoke identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(rec))
}

func (h *Handler) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	rs, err := h.service.ListReceipts(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to list receipts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptList(rs))
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	proofHash, err := domain.ParseDigest(chi.URLParam(r, "proof_hash"))
	if err != nil {
		h.writeError(ctx, w, "invalid proof hash", err)
		return
	}
	receipt, err := h.service.GetReceipt(ctx, addr, proofHash)
	if err != nil {
		h.writeError(ctx, w, "failed to get receipt", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) handleLookupReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	var req receiptLookupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid receipt lookup request", err)
		return
	}
	hashes, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, "invalid proof hash", err)
		return
	}
	rs, err := h.service.ConsumedProofs(ctx, addr, hashes)
	if err != nil {
		h.writeError(ctx, w, "failed to look up receipts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptList(rs))
}

func (h *Handler) handleRequirementDigest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.Requirement
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid requirement", err)
		return
	}
	doc, digest, err := h.service.RequirementDigest(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "failed to digest requirement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requirementDigestResponse{Request: doc, RequirementHash: digest.String()})
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(r.Context(), w, "invalid identity address", err)
		return domain.Address{}, false
	}
	return addr, true
}

// writeError logs client errors at warn and everything else at error.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteError(w, err)
}
