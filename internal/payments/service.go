package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/events"
	kafkax "github.com/ariefcatur/go-collection-lists/internal/kafka"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const EventTransactionRecorded = "payment-transaction"

var paymentsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_processed_total",
		Help: "Payment requests handled by result",
	},
	[]string{"result"},
)

type Catalog interface {
	PriceBySKU(ctx context.Context, sku string) (decimal.Decimal, bool, error)
}

type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
}

// Result is the simulated transaction record.
type Result struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ProcessedAt   time.Time       `json:"processedAt"`
	ListID        string          `json:"listId,omitempty"`
	ShopID        string          `json:"shopId,omitempty"`
	CompletedBy   string          `json:"completedBy,omitempty"`
	ItemCount     int             `json:"itemCount"`
	Error         string          `json:"error,omitempty"`
}

// Service prices completed lists. Dedup and Out are optional.
type Service struct {
	Catalog Catalog
	Dedup   Deduper
	Out     events.Sender
	Clock   clock.Clock
	Logger  *zap.Logger
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// HandlePaymentRequest is the consumer handler. It always returns nil once a
// message has been looked at: this stage does not retry.
func (s *Service) HandlePaymentRequest(ctx context.Context, m kafka.Message) error {
	ev, err := kafkax.Decode[lists.Event](m)
	if err != nil {
		paymentsProcessed.WithLabelValues("invalid").Inc()
		s.log().Warn("dropping undecodable payment message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if ev.Type != lists.EventPaymentRequested && ev.Type != lists.EventListCompleted {
		return nil
	}

	if s.Dedup != nil && ev.ListID != "" {
		first, err := s.Dedup.Claim(ctx, ev.ListID)
		switch {
		case err != nil:
			s.log().Warn("payment dedup unavailable, processing anyway", zap.String("list_id", ev.ListID), zap.Error(err))
		case !first:
			paymentsProcessed.WithLabelValues("duplicate").Inc()
			s.log().Info("payment already processed for list", zap.String("list_id", ev.ListID))
			return nil
		}
	}

	res := s.Process(ctx, ev)
	if res.Success {
		paymentsProcessed.WithLabelValues("success").Inc()
		s.log().Info("payment processed",
			zap.String("list_id", res.ListID),
			zap.String("title", ev.Title),
			zap.String("shop_id", res.ShopID),
			zap.Int("items", res.ItemCount),
			zap.String("amount", res.Amount.StringFixed(2)),
			zap.String("transaction_id", res.TransactionID),
		)
	} else {
		paymentsProcessed.WithLabelValues("failed").Inc()
		s.log().Error("payment failed", zap.String("list_id", ev.ListID), zap.String("error", res.Error))
	}
	s.emit(ctx, res)
	return nil
}

// Process validates the request and computes the transaction. Missing
// identity fields yield a failed Result rather than an error.
func (s *Service) Process(ctx context.Context, ev lists.Event) Result {
	var missing []string
	if ev.ListID == "" {
		missing = append(missing, "listId")
	}
	if ev.ShopID == nil || *ev.ShopID == "" {
		missing = append(missing, "shopId")
	}
	if ev.CompletedBy == nil || *ev.CompletedBy == "" {
		missing = append(missing, "completedBy")
	}
	if len(missing) > 0 {
		return Result{
			Success:     false,
			Amount:      decimal.Zero,
			ProcessedAt: s.now(),
			ListID:      ev.ListID,
			ItemCount:   len(ev.Items),
			Error:       "Missing required payment data: " + strings.Join(missing, ", "),
		}
	}

	amount := s.Total(ctx, ev.Items)
	now := s.now()
	return Result{
		Success:       true,
		TransactionID: TransactionID(ev.ListID, now),
		Amount:        amount,
		ProcessedAt:   now,
		ListID:        ev.ListID,
		ShopID:        *ev.ShopID,
		CompletedBy:   *ev.CompletedBy,
		ItemCount:     len(ev.Items),
	}
}

// Total prices items from the catalog: price times qtyCollected, or qty when
// nothing was collected yet. Items without a sku or a catalog price are
// skipped. The sum is rounded to cents.
func (s *Service) Total(ctx context.Context, items []lists.Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.SKU == nil || strings.TrimSpace(*it.SKU) == "" {
			s.log().Warn("item has no sku, skipping price lookup", zap.String("item_id", it.ID))
			continue
		}
		price, ok, err := s.Catalog.PriceBySKU(ctx, *it.SKU)
		if err != nil {
			s.log().Warn("price lookup failed", zap.String("sku", *it.SKU), zap.Error(err))
			continue
		}
		if !ok {
			s.log().Warn("no price found for sku", zap.String("sku", *it.SKU))
			continue
		}
		qty := it.QtyRequested
		if it.QtyCollected != nil {
			qty = *it.QtyCollected
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total.Round(2)
}

func TransactionID(listID string, at time.Time) string {
	return fmt.Sprintf("TXN-%s-%d", listID, at.Unix())
}

func (s *Service) emit(ctx context.Context, res Result) {
	if s.Out == nil {
		return
	}
	value, err := json.Marshal(res)
	if err != nil {
		s.log().Warn("encode transaction record failed", zap.String("list_id", res.ListID), zap.Error(err))
		return
	}
	err = s.Out.Publish(ctx, lists.PartitionKey(res.ListID), value, kafkax.EventHeaders(EventTransactionRecorded, lists.EventVersion)...)
	if err != nil {
		s.log().Warn("publish transaction record failed", zap.String("list_id", res.ListID), zap.Error(err))
	}
}
