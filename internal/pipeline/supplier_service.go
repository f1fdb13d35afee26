package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"portal/internal"
	"portal/internal/metrics"
	"portal/internal/storage"
	"portal/internal/util"
)

type SupplierSource interface {
	GetProductSupplier(ctx context.Context, productID string) (json.RawMessage, error)
}

type SupplierService struct {
	source  SupplierSource
	db      *storage.DB
	metrics *metrics.Registry
	logger  *zap.Logger
}

type SupplierResult struct {
	ProductID string
	Outcome   internal.LookupOutcome
	View      *internal.SupplierView
	Notices   []Notice
}

func NewSupplierService(source SupplierSource, db *storage.DB, reg *metrics.Registry, logger *zap.Logger) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierService{source: source, db: db, metrics: reg, logger: logger}
}

// Lookup resolves the supplier of one product. Every outcome, including
// upstream failures, is returned as a result with notices, never an error.
func (s *SupplierService) Lookup(ctx context.Context, sess internal.Session, productID string) SupplierResult {
	productID = strings.TrimSpace(productID)
	result := SupplierResult{ProductID: productID}
	if productID == "" {
		result.Notices = append(result.Notices, noticef(NoticeWarning, "Enter a product ID to search."))
		return result
	}

	raw, err := s.source.GetProductSupplier(ctx, productID)
	if err != nil {
		s.logger.Warn("fetch supplier failed", zap.String("productId", productID), zap.Error(err))
		result.Outcome = internal.LookupError
		result.Notices = append(result.Notices, upstreamNotice("supplier info", err))
		s.record(sess, result)
		return result
	}

	view, err := UnwrapSupplier(raw)
	switch {
	case errors.Is(err, ErrEmptySupplierPayload):
		result.Outcome = internal.LookupEmpty
		result.Notices = append(result.Notices, noticef(NoticeWarning, "No supplier data found for Product ID: %s", productID))
	case err != nil:
		s.logger.Warn("supplier payload invalid", zap.String("productId", productID), zap.Error(err))
		result.Outcome = internal.LookupInvalid
		result.Notices = append(result.Notices, noticef(NoticeError, "Invalid data format received from server"))
	case view.Known:
		result.Outcome = internal.LookupFound
		result.View = &view
		result.Notices = append(result.Notices, noticef(NoticeSuccess, "Supplier found for Product ID: %s", productID))
	default:
		result.Outcome = internal.LookupUnexpected
		result.View = &view
		result.Notices = append(result.Notices, noticef(NoticeError, "Unexpected data format received"))
	}
	s.record(sess, result)
	return result
}

func (s *SupplierService) record(sess internal.Session, result SupplierResult) {
	s.metrics.ObserveLookup(string(result.Outcome))
	if s.db == nil {
		return
	}
	var company *string
	if result.View != nil && result.View.CompanyName != "" {
		company = util.StringPtr(result.View.CompanyName)
	}
	if err := s.db.InsertLookup(sess.CustomerID, result.ProductID, result.Outcome, company); err != nil {
		s.logger.Error("record lookup failed", zap.String("productId", result.ProductID), zap.Error(err))
	}
}
