package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document kinds accepted on submission.
const (
	DocCNICFront  = "cnic_front"
	DocCNICBack   = "cnic_back"
	DocSupporting = "supporting"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	maxReasonLength    = 5000
	maxAddressLength   = 500
	maxRepaymentMonths = 60
	maxExtensionFields = 32
	maxExtensionKey    = 64
	maxExtensionValue  = 1000
)

var ErrRequestResolved = apperr.NotEligible("request already resolved")

// Document is one uploaded file attached to a submission.
type Document struct {
	Kind        string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitInput is a submission after transport decoding.
type SubmitInput struct {
	Type      string
	Reason    string
	Amount    *float64
	Address   string
	Details   json.RawMessage
	Documents []Document
}

// ListOptions narrows a role-scoped listing.
type ListOptions struct {
	Status models.RequestStatus
	Type   string
	Limit  int
	Offset int
}

type RequestService struct {
	requests stores.RequestStore
	policies *policy.Registry
	docs     storage.Store
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRequestService(requests stores.RequestStore, policies *policy.Registry, docs storage.Store, m *metrics.Metrics) *RequestService {
	return &RequestService{
		requests: requests,
		policies: policies,
		docs:     docs,
		metrics:  m,
		now:      time.Now,
	}
}

// Submit validates and persists a new pending request. Documents are written
// before the row; if the row cannot be inserted they are removed again.
func (s *RequestService) Submit(ctx context.Context, id *access.Identity, in SubmitInput) (*models.WelfareRequest, error) {
	if err := RequireRole(id, models.RoleApplicant); err != nil {
		return nil, err
	}

	req, err := s.buildRequest(id, in)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(in.Documents))
	for _, doc := range in.Documents {
		if !validDocKind(doc.Kind) {
			return nil, apperr.Validation("documents", "unknown document kind "+strconv.Quote(doc.Kind))
		}
		if seen[doc.Kind] {
			return nil, apperr.Validation("documents", "duplicate document kind "+strconv.Quote(doc.Kind))
		}
		seen[doc.Kind] = true
	}

	written, err := s.storeDocuments(ctx, id.UserID, req, in.Documents)
	if err != nil {
		s.removeDocuments(written)
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.removeDocuments(written)
		return nil, apperr.Internal("create request", err)
	}

	s.metrics.RequestSubmitted(req.Type)
	slog.Info("request submitted",
		"action", "request.submit",
		"user_id", id.UserID.String(),
		"role", string(id.Role),
		"request", req.ID.String(),
		"type", req.Type,
	)
	return req, nil
}

func (s *RequestService) buildRequest(id *access.Identity, in SubmitInput) (*models.WelfareRequest, error) {
	requestType := strings.ToLower(strings.TrimSpace(in.Type))
	if requestType == "" {
		return nil, apperr.Validation("type", "type is required")
	}
	pol, ok := s.policies.Lookup(requestType)
	if !ok {
		return nil, apperr.Validation("type", "unsupported request type")
	}

	address := strings.TrimSpace(in.Address)
	if address == "" {
		return nil, apperr.Validation("address", "address is required")
	}
	if len(address) > maxAddressLength {
		return nil, apperr.Validation("address", fmt.Sprintf("must be at most %d characters", maxAddressLength))
	}

	if in.Amount == nil {
		if pol.AmountRequired {
			return nil, apperr.Validation("amount", "amount is required")
		}
	} else {
		if err := checkAmount("amount", *in.Amount); err != nil {
			return nil, err
		}
		if *in.Amount > pol.Ceiling {
			return nil, apperr.Validation("amount", "must not exceed "+strconv.FormatFloat(pol.Ceiling, 'f', -1, 64))
		}
	}

	reason := strings.TrimSpace(in.Reason)
	if len(reason) > maxReasonLength {
		return nil, apperr.Validation("reason", fmt.Sprintf("must be at most %d characters", maxReasonLength))
	}

	details, err := decodeDetails(requestType, s.policies.Builtin(requestType), in.Details)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		// A business plan stands in for the reason on microfinance requests.
		if details.Microfinance == nil || strings.TrimSpace(details.Microfinance.BusinessPlan) == "" {
			return nil, apperr.Validation("reason", "reason is required")
		}
	}

	req := &models.WelfareRequest{
		ID:      uuid.New(),
		UserID:  id.UserID,
		Type:    requestType,
		Reason:  reason,
		Amount:  in.Amount,
		Status:  models.StatusPending,
		Address: address,
		Details: datatypes.NewJSONType(details),
	}
	return req, nil
}

// decodeDetails parses the per-type payload into its variant.
func decodeDetails(requestType string, builtin bool, raw json.RawMessage) (models.RequestDetails, error) {
	details := models.RequestDetails{Kind: requestType}
	if !builtin {
		ext := &models.ExtensionDetails{}
		if !emptyJSON(raw) {
			if err := json.Unmarshal(raw, &ext.Fields); err != nil {
				return details, apperr.Validation("details", "must be an object of text fields")
			}
		}
		if len(ext.Fields) > maxExtensionFields {
			return details, apperr.Validation("details", fmt.Sprintf("at most %d fields are allowed", maxExtensionFields))
		}
		for k, v := range ext.Fields {
			if k == "" || len(k) > maxExtensionKey || len(v) > maxExtensionValue {
				return details, apperr.Validation("details", "field "+strconv.Quote(k)+" is too long")
			}
		}
		details.Extension = ext
		return details, nil
	}

	switch requestType {
	case models.TypeLoan:
		d := &models.LoanDetails{}
		if err := strictDecode(raw, d); err != nil {
			return details, err
		}
		if d.RepaymentMonths < 0 || d.RepaymentMonths > maxRepaymentMonths {
			return details, apperr.Validation("details.repayment_months", fmt.Sprintf("must be between 1 and %d", maxRepaymentMonths))
		}
		if d.MonthlyIncome != nil && *d.MonthlyIncome < 0 {
			return details, apperr.Validation("details.monthly_income", "must not be negative")
		}
		if d.GuarantorCNIC != "" {
			if !ValidCNIC(d.GuarantorCNIC) {
				return details, apperr.Validation("details.guarantor_cnic", "must be a 13-digit CNIC")
			}
			d.GuarantorCNIC = NormalizeCNIC(d.GuarantorCNIC)
		}
		d.GuarantorName = strings.TrimSpace(d.GuarantorName)
		details.Loan = d
	case models.TypeMicrofinance:
		d := &models.MicrofinanceDetails{}
		if err := strictDecode(raw, d); err != nil {
			return details, err
		}
		d.BusinessName = strings.TrimSpace(d.BusinessName)
		if d.BusinessName == "" {
			return details, apperr.Validation("details.business_name", "business_name is required")
		}
		if d.MonthlyRevenue != nil && *d.MonthlyRevenue < 0 {
			return details, apperr.Validation("details.monthly_revenue", "must not be negative")
		}
		d.BusinessType = strings.TrimSpace(d.BusinessType)
		d.BusinessPlan = strings.TrimSpace(d.BusinessPlan)
		details.Microfinance = d
	case models.TypeGeneral:
		d := &models.GeneralDetails{}
		if err := strictDecode(raw, d); err != nil {
			return details, err
		}
		if d.Dependents < 0 {
			return details, apperr.Validation("details.dependents", "must not be negative")
		}
		d.Category = strings.TrimSpace(d.Category)
		details.General = d
	}
	return details, nil
}

func strictDecode(raw json.RawMessage, v interface{}) error {
	if emptyJSON(raw) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("details", "invalid details: "+err.Error())
	}
	return nil
}

func emptyJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "{}"
}

func validDocKind(kind string) bool {
	switch kind {
	case DocCNICFront, DocCNICBack, DocSupporting:
		return true
	}
	return false
}

// storeDocuments writes each document and records its key on req. It returns
// the keys written so far even on failure.
func (s *RequestService) storeDocuments(ctx context.Context, userID uuid.UUID, req *models.WelfareRequest, docs []Document) ([]string, error) {
	var written []string
	for _, doc := range docs {
		key := storage.DocumentKey(userID, s.now(), doc.Kind, doc.Filename)
		if err := s.docs.Put(ctx, key, doc.Body, doc.Size, doc.ContentType); err != nil {
			return written, apperr.Storage("store "+doc.Kind, err)
		}
		written = append(written, key)

		switch doc.Kind {
		case DocCNICFront:
			req.CNICFront = key
		case DocCNICBack:
			req.CNICBack = key
		case DocSupporting:
			req.SupportingDoc = key
		}
	}
	return written, nil
}

// removeDocuments runs detached from the caller's context so cleanup still
// happens after a cancelled request.
func (s *RequestService) removeDocuments(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.docs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.Error("failed to remove orphaned document", "action", "request.submit", "key", key, "error", err.Error())
		}
	}
}

// Transition moves a pending request to approved or rejected. Only admins may
// call it, and a request leaves pending at most once.
func (s *RequestService) Transition(ctx context.Context, id *access.Identity, requestID uuid.UUID, status models.RequestStatus, rejectionReason string) error {
	if err := RequireRole(id, models.RoleAdmin); err != nil {
		return err
	}

	var reason *string
	switch status {
	case models.StatusApproved:
	case models.StatusRejected:
		trimmed := strings.TrimSpace(rejectionReason)
		if trimmed == "" {
			return apperr.Validation("rejection_reason", "rejection reason is required when rejecting")
		}
		if len(trimmed) > maxReasonLength {
			return apperr.Validation("rejection_reason", fmt.Sprintf("must be at most %d characters", maxReasonLength))
		}
		reason = &trimmed
	default:
		return apperr.Validation("status", "must be one of: approved rejected")
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return apperr.NotFound("request")
		}
		return apperr.Internal("load request", err)
	}
	if current.Status.Terminal() {
		return ErrRequestResolved
	}

	applied, err := s.requests.Resolve(ctx, requestID, stores.Resolution{
		Status:          status,
		RejectionReason: reason,
		ReviewedBy:      id.UserID,
		At:              s.now(),
	})
	if err != nil {
		return apperr.Internal("resolve request", err)
	}
	if !applied {
		return ErrRequestResolved
	}

	s.metrics.RequestTransitioned(string(status))
	slog.Info("request transitioned",
		"action", "request.transition",
		"user_id", id.UserID.String(),
		"role", string(id.Role),
		"request", requestID.String(),
		"status", string(status),
	)
	return nil
}

// ListForRole returns the requests visible to id, newest first, with the
// total matching count. Admins see everything with the applicant attached,
// donors see approved requests and applicants see their own.
func (s *RequestService) ListForRole(ctx context.Context, id *access.Identity, opts ListOptions) ([]models.WelfareRequest, int64, error) {
	if err := RequireRole(id, models.RoleAdmin, models.RoleDonor, models.RoleApplicant); err != nil {
		return nil, 0, err
	}
	f, err := listFilter(opts)
	if err != nil {
		return nil, 0, err
	}

	switch id.Role {
	case models.RoleAdmin:
		f.WithApplicant = true
	case models.RoleDonor:
		if f.Status != "" && f.Status != models.StatusApproved {
			return []models.WelfareRequest{}, 0, nil
		}
		f.Status = models.StatusApproved
	case models.RoleApplicant:
		owner := id.UserID
		f.UserID = &owner
	}
	return s.list(ctx, f)
}

// SearchByCNIC lists requests filed under cnic. Applicants may only search
// their own identity number.
func (s *RequestService) SearchByCNIC(ctx context.Context, id *access.Identity, cnic string, opts ListOptions) ([]models.WelfareRequest, int64, error) {
	if err := RequireRole(id, models.RoleAdmin, models.RoleDonor, models.RoleApplicant); err != nil {
		return nil, 0, err
	}
	if !ValidCNIC(cnic) {
		return nil, 0, apperr.Validation("cnic", "must be a 13-digit CNIC")
	}
	cnic = NormalizeCNIC(cnic)
	if !id.CanReadCNIC(cnic) {
		return nil, 0, apperr.Forbidden("you may only search your own requests")
	}

	f, err := listFilter(opts)
	if err != nil {
		return nil, 0, err
	}
	f.ApplicantCNIC = cnic
	f.WithApplicant = id.Role == models.RoleAdmin
	if id.Role == models.RoleDonor {
		f.Status = models.StatusApproved
	}
	return s.list(ctx, f)
}

func (s *RequestService) list(ctx context.Context, f stores.RequestFilter) ([]models.WelfareRequest, int64, error) {
	total, err := s.requests.Count(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal("count requests", err)
	}
	out, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal("list requests", err)
	}
	if out == nil {
		out = []models.WelfareRequest{}
	}
	return out, total, nil
}

func listFilter(opts ListOptions) (stores.RequestFilter, error) {
	f := stores.RequestFilter{
		Type:   strings.ToLower(strings.TrimSpace(opts.Type)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	switch opts.Status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
		f.Status = opts.Status
	default:
		return f, apperr.Validation("status", "must be one of: pending approved rejected")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		return f, apperr.Validation("offset", "must not be negative")
	}
	return f, nil
}

// Get returns one request if id may see it. Donors get NOT_FOUND for requests
// that are not approved so existence is not revealed. Only admins receive the
// applicant record.
func (s *RequestService) Get(ctx context.Context, id *access.Identity, requestID uuid.UUID) (*models.WelfareRequest, error) {
	if err := RequireRole(id, models.RoleAdmin, models.RoleDonor, models.RoleApplicant); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, apperr.NotFound("request")
		}
		return nil, apperr.Internal("load request", err)
	}

	switch id.Role {
	case models.RoleDonor:
		if req.Status != models.StatusApproved {
			return nil, apperr.NotFound("request")
		}
	case models.RoleApplicant:
		if req.UserID != id.UserID {
			return nil, apperr.Forbidden("request belongs to another applicant")
		}
	}
	// Applicant details are joined for admins only, as in listings.
	if id.Role != models.RoleAdmin {
		req.User = nil
	}
	return req, nil
}

// OpenDocument streams a stored document of the request to an admin or the
// owning applicant. The caller closes the reader.
func (s *RequestService) OpenDocument(ctx context.Context, id *access.Identity, requestID uuid.UUID, kind string) (io.ReadCloser, string, error) {
	if err := RequireRole(id, models.RoleAdmin, models.RoleApplicant); err != nil {
		return nil, "", err
	}
	if !validDocKind(kind) {
		return nil, "", apperr.Validation("kind", "must be one of: cnic_front cnic_back supporting")
	}
	req, err := s.Get(ctx, id, requestID)
	if err != nil {
		return nil, "", err
	}

	var key string
	switch kind {
	case DocCNICFront:
		key = req.CNICFront
	case DocCNICBack:
		key = req.CNICBack
	case DocSupporting:
		key = req.SupportingDoc
	}
	if key == "" {
		return nil, "", apperr.NotFound("document")
	}

	rc, err := s.docs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperr.NotFound("document")
		}
		return nil, "", apperr.Storage("open document", err)
	}
	return rc, key, nil
}
