package lists

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLen    = 120
	MaxShopIDLen   = 120
	MaxSKULen      = 120
	MaxItemIDLen   = 120
	MaxEmployeeLen = 120
	MaxItemNameLen = 200
	MaxItems       = 500
	MaxQty         = 10000
)

// ItemInput is an item as it arrives on the wire, before validation.
type ItemInput struct {
	ID     string  `json:"id"`
	SKU    *string `json:"sku"`
	Name   string  `json:"name"`
	Qty    any     `json:"qty"`
	Status string  `json:"status"`
}

func ValidateShopID(shopID string, required bool) (string, error) {
	s := strings.TrimSpace(shopID)
	if s == "" {
		if required {
			return "", invalid("shopId is required")
		}
		return "", nil
	}
	if utf8.RuneCountInString(s) > MaxShopIDLen {
		return "", invalid("shopId must be 120 characters or fewer")
	}
	return s, nil
}

func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", invalid("title is required")
	}
	if utf8.RuneCountInString(t) > MaxTitleLen {
		return "", invalid("title must be 120 characters or fewer")
	}
	return t, nil
}

func ValidateItems(in []ItemInput) ([]NewItem, error) {
	if len(in) > MaxItems {
		return nil, invalid("items cannot exceed 500 entries")
	}
	out := make([]NewItem, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, it := range in {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, invalid("each item requires a non-empty name")
		}
		if utf8.RuneCountInString(name) > MaxItemNameLen {
			return nil, invalid("item name must be 200 characters or fewer")
		}

		qty := 1
		if it.Qty != nil {
			n, ok := toInt(it.Qty, true)
			if !ok || n < 1 {
				return nil, invalid("qty must be a positive number")
			}
			if n > MaxQty {
				return nil, invalid("qty must be 10,000 or less")
			}
			qty = int(n)
		}

		status := ItemPending
		if it.Status != "" {
			status = ItemStatus(it.Status)
		}
		if !status.Valid() {
			return nil, invalid("status must be one of pending, collected, unavailable")
		}

		if it.SKU != nil && utf8.RuneCountInString(*it.SKU) > MaxSKULen {
			return nil, invalid("sku must be 120 characters or fewer")
		}

		id := strings.TrimSpace(it.ID)
		if id != "" {
			if utf8.RuneCountInString(id) > MaxItemIDLen {
				return nil, invalid("item id must be 120 characters or fewer")
			}
			if seen[id] {
				return nil, invalid("item ids must be unique within a list")
			}
			seen[id] = true
		}

		out = append(out, NewItem{ID: id, SKU: it.SKU, Name: name, Qty: qty, Status: status})
	}
	return out, nil
}

// ValidateNewList re-checks already validated input. Stores call it before
// writing so bad data cannot reach the tables through another path.
func ValidateNewList(title string, items []NewItem) error {
	if _, err := ValidateTitle(title); err != nil {
		return err
	}
	if len(items) > MaxItems {
		return invalid("items cannot exceed 500 entries")
	}
	for _, it := range items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return invalid("each item requires a non-empty name")
		case utf8.RuneCountInString(it.Name) > MaxItemNameLen:
			return invalid("item name must be 200 characters or fewer")
		case it.Qty < 1:
			return invalid("qty must be a positive number")
		case it.Qty > MaxQty:
			return invalid("qty must be 10,000 or less")
		case !it.Status.Valid():
			return invalid("status must be one of pending, collected, unavailable")
		case it.SKU != nil && utf8.RuneCountInString(*it.SKU) > MaxSKULen:
			return invalid("sku must be 120 characters or fewer")
		}
	}
	return nil
}

func ValidateItemStatus(status string) (ItemStatus, error) {
	s := ItemStatus(strings.ToLower(strings.TrimSpace(status)))
	if s == "" {
		return "", invalid("status is required")
	}
	if !s.Valid() {
		return "", invalid("status must be one of pending, collected, unavailable")
	}
	return s, nil
}

// CoerceQtyCollected accepts a JSON number or a numeric string. nil means
// the field was omitted.
func CoerceQtyCollected(v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	var (
		n  int64
		ok bool
	)
	if s, isStr := v.(string); isStr {
		n, ok = parseIntString(s)
	} else {
		n, ok = toInt(v, false)
	}
	if !ok || n < 0 || n > math.MaxInt32 {
		return nil, invalid("qtyCollected must be a non-negative integer")
	}
	q := int(n)
	return &q, nil
}

// CoerceEmployeeID turns a string or number into the completedBy value.
func CoerceEmployeeID(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	default:
		return "", invalid("employeeId must be a string or number")
	}
	if utf8.RuneCountInString(s) > MaxEmployeeLen {
		return "", invalid("employeeId must be 120 characters or fewer")
	}
	return s, nil
}

// toInt converts JSON numbers. With truncate set, fractional values are cut
// toward zero; otherwise they are rejected.
func toInt(v any, truncate bool) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		f = x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	if f != math.Trunc(f) && !truncate {
		return 0, false
	}
	return int64(f), true
}

func parseIntString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
