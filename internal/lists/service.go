package lists

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/ariefcatur/go-collection-lists/internal/lists"

// Service runs every list use case as validate, persist, then publish.
// A failed store call returns before anything is published; publishing
// never fails the call.
type Service struct {
	store  Store
	pub    Publisher
	logger *zap.Logger
	tracer trace.Tracer
}

func NewService(store Store, pub Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pub: pub, logger: logger, tracer: otel.Tracer(tracerName)}
}

type CreateListInput struct {
	ShopID string
	Title  string
	Items  []ItemInput
}

type UpdateItemInput struct {
	ListID       string
	ItemID       string
	Status       string
	QtyCollected any
}

type CompleteListInput struct {
	ListID     string
	EmployeeID any
	ShopID     string
}

func (s *Service) CreateList(ctx context.Context, in CreateListInput) (*List, error) {
	ctx, span := s.tracer.Start(ctx, "lists.CreateList")
	defer span.End()

	shopID, err := ValidateShopID(in.ShopID, true)
	if err != nil {
		return nil, err
	}
	title, err := ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	items, err := ValidateItems(in.Items)
	if err != nil {
		return nil, err
	}

	l, err := s.store.CreateList(ctx, title, shopID, items)
	if err != nil {
		return nil, fail(span, "create list", err)
	}
	span.SetAttributes(attribute.String("list.id", l.ID), attribute.Int("list.items", len(l.Items)))

	count := len(l.Items)
	s.pub.Publish(ctx, Event{
		Type:      EventListCreated,
		ListID:    l.ID,
		Title:     l.Title,
		ShopID:    l.ShopID,
		ItemCount: &count,
	})
	return l, nil
}

func (s *Service) GetList(ctx context.Context, listID, shopID string) (*List, error) {
	ctx, span := s.tracer.Start(ctx, "lists.GetList")
	defer span.End()

	listID = strings.TrimSpace(listID)
	if listID == "" {
		return nil, invalid("listId is required")
	}
	shopID, err := ValidateShopID(shopID, false)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("list.id", listID))

	l, err := s.store.GetList(ctx, listID, shopID)
	if err != nil {
		return nil, fail(span, "get list", err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) ListLists(ctx context.Context, shopID string) ([]List, error) {
	ctx, span := s.tracer.Start(ctx, "lists.ListLists")
	defer span.End()

	shopID, err := ValidateShopID(shopID, true)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListLists(ctx, shopID)
	if err != nil {
		return nil, fail(span, "list lists", err)
	}
	if out == nil {
		out = []List{}
	}
	return out, nil
}

func (s *Service) UpdateItem(ctx context.Context, in UpdateItemInput) (*Item, error) {
	ctx, span := s.tracer.Start(ctx, "lists.UpdateItem")
	defer span.End()

	listID, itemID := strings.TrimSpace(in.ListID), strings.TrimSpace(in.ItemID)
	if listID == "" || itemID == "" {
		return nil, invalid("listId and itemId are required")
	}
	status, err := ValidateItemStatus(in.Status)
	if err != nil {
		return nil, err
	}
	qty, err := CoerceQtyCollected(in.QtyCollected)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("list.id", listID), attribute.String("item.id", itemID))

	it, err := s.store.UpdateItem(ctx, listID, itemID, status, qty)
	if err != nil {
		return nil, fail(span, "update item", err)
	}
	if it == nil {
		return nil, ErrNotFound
	}

	s.pub.Publish(ctx, Event{
		Type:    EventItemUpdated,
		ListID:  listID,
		ItemID:  it.ID,
		Changes: &ItemChanges{Status: status, QtyCollected: qty},
		Version: it.Version,
	})
	return it, nil
}

func (s *Service) CompleteList(ctx context.Context, in CompleteListInput) (*Completion, error) {
	ctx, span := s.tracer.Start(ctx, "lists.CompleteList")
	defer span.End()

	listID := strings.TrimSpace(in.ListID)
	if listID == "" {
		return nil, invalid("listId is required")
	}
	employeeID, err := CoerceEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	shopID, err := ValidateShopID(in.ShopID, false)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("list.id", listID))

	c, err := s.store.CompleteList(ctx, listID, employeeID, shopID)
	if err != nil {
		return nil, fail(span, "complete list", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}

	if c.Items == nil {
		l, err := s.store.GetList(ctx, listID, "")
		switch {
		case err != nil:
			s.logger.Warn("reload completed list failed", zap.String("list_id", listID), zap.Error(err))
		case l != nil:
			c.Title = l.Title
			c.Items = l.Items
			if c.ShopID == nil {
				c.ShopID = l.ShopID
			}
		}
	}

	completedAt := c.CompletedAt
	s.pub.Publish(ctx, Event{
		Type:        EventListCompleted,
		ListID:      listID,
		ShopID:      c.ShopID,
		Status:      "COMPLETED",
		CompletedAt: &completedAt,
		CompletedBy: c.CompletedBy,
		Items:       c.Items,
		Title:       c.Title,
	})
	return c, nil
}

func (s *Service) DeleteList(ctx context.Context, listID, shopID string) error {
	ctx, span := s.tracer.Start(ctx, "lists.DeleteList")
	defer span.End()

	listID = strings.TrimSpace(listID)
	if listID == "" {
		return invalid("listId is required")
	}
	shopID, err := ValidateShopID(shopID, false)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("list.id", listID))

	ok, err := s.store.DeleteList(ctx, listID, shopID)
	if err != nil {
		return fail(span, "delete list", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.pub.Publish(ctx, Event{Type: EventListDeleted, ListID: listID, ShopID: StrPtr(shopID)})
	return nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	return StoreErr(op, err)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
