package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-receipts/internal/common"
	"github.com/noah-isme/toko-receipts/internal/obs"
	"github.com/noah-isme/toko-receipts/internal/pricing"
	"github.com/noah-isme/toko-receipts/internal/receipt"
)

// ServiceConfig wires the receipt service.
type ServiceConfig struct {
	Rules   []pricing.Rule
	Options receipt.Options
	Logger  zerolog.Logger
	Metrics *obs.ReceiptMetrics
}

// Service calculates orders and renders their receipts.
type Service struct {
	engine    *pricing.Engine
	formatter *receipt.Formatter
	logger    zerolog.Logger
	metrics   *obs.ReceiptMetrics
	tracer    trace.Tracer
}

// QuoteInput is one order to price. Nil Rules or Options fall back to the service configuration;
// a non-nil empty Rules slice disables discounts for the order.
type QuoteInput struct {
	Lines   []pricing.Line
	Rules   []pricing.Rule
	Options *receipt.Options
}

// Receipt is a priced order and its rendered text.
type Receipt struct {
	ID          uuid.UUID                `json:"id"`
	Locale      string                   `json:"locale"`
	Currency    string                   `json:"currency"`
	Calculation pricing.OrderCalculation `json:"calculation"`
	Text        string                   `json:"text"`
}

// NewService validates the configured locale and currency up front.
func NewService(cfg ServiceConfig) (*Service, error) {
	formatter, err := receipt.NewFormatter(cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("receipt formatter: %w", err)
	}
	return &Service{
		engine:    pricing.NewEngine(cfg.Rules),
		formatter: formatter,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    obs.Tracer("receipts/order"),
	}, nil
}

// Rules returns the configured discount tiers, highest threshold first.
func (s *Service) Rules() []pricing.Rule {
	return s.engine.Rules()
}

// Options returns the configured locale and currency.
func (s *Service) Options() receipt.Options {
	return s.formatter.Options()
}

// Quote prices the order and renders it. Unsupported locales or currencies are
// reported as 422 AppErrors wrapping receipt.ErrUnsupportedLocale/ErrUnsupportedCurrency.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Receipt, error) {
	_, span := s.tracer.Start(ctx, "receipt.quote")
	defer span.End()

	engine := s.engine
	if in.Rules != nil {
		engine = pricing.NewEngine(in.Rules)
	}
	formatter := s.formatter
	if in.Options != nil {
		f, err := receipt.NewFormatter(*in.Options)
		if err != nil {
			appErr := classify(err)
			s.metrics.ObserveFailed(in.Options.Currency, strings.ToLower(appErr.Code))
			span.RecordError(err)
			span.SetStatus(codes.Error, appErr.Code)
			s.logger.Debug().Err(err).Str("locale", in.Options.Locale).Str("currency", in.Options.Currency).Msg("receipt options rejected")
			return Receipt{}, appErr
		}
		formatter = f
	}

	calc := engine.CalculateOrder(in.Lines)
	opts := formatter.Options()
	out := Receipt{
		ID:          uuid.New(),
		Locale:      formatter.Locale(),
		Currency:    opts.Currency,
		Calculation: calc,
		Text:        formatter.FormatOrder(calc),
	}

	span.SetAttributes(
		attribute.Int("receipt.lines", len(calc.Lines)),
		attribute.String("receipt.currency", opts.Currency),
		attribute.String("receipt.locale", out.Locale),
	)
	s.metrics.ObserveRendered(opts.Currency, calc.TotalDiscount)
	s.logger.Debug().
		Str("receipt_id", out.ID.String()).
		Int("lines", len(calc.Lines)).
		Float64("final_total", calc.FinalTotal).
		Msg("receipt rendered")
	return out, nil
}

// Display prices lines with the configured rules and options and writes the receipt to w.
func (s *Service) Display(ctx context.Context, w io.Writer, lines []pricing.Line) error {
	out, err := s.Quote(ctx, QuoteInput{Lines: lines})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out.Text+"\n")
	return err
}

// Check reports whether the configured formatter still renders.
func (s *Service) Check(context.Context) error {
	if s == nil || s.formatter == nil {
		return errors.New("receipt service not configured")
	}
	return nil
}

func classify(err error) *common.AppError {
	switch {
	case errors.Is(err, receipt.ErrUnsupportedLocale):
		return common.Unprocessable("UNSUPPORTED_LOCALE", err)
	case errors.Is(err, receipt.ErrUnsupportedCurrency):
		return common.Unprocessable("UNSUPPORTED_CURRENCY", err)
	default:
		return common.NewAppError("INTERNAL", "receipt rendering failed", http.StatusInternalServerError, err)
	}
}
