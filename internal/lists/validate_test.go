package lists

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationMsg(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Msg
}

func TestValidateShopID(t *testing.T) {
	s, err := ValidateShopID("  shop-1 ", true)
	require.NoError(t, err)
	assert.Equal(t, "shop-1", s)

	_, err = ValidateShopID("   ", true)
	assert.Equal(t, "shopId is required", validationMsg(t, err))

	s, err = ValidateShopID("", false)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ValidateShopID(strings.Repeat("s", 121), false)
	assert.Equal(t, "shopId must be 120 characters or fewer", validationMsg(t, err))
}

func TestValidateTitle(t *testing.T) {
	title, err := ValidateTitle("  Weekly restock ")
	require.NoError(t, err)
	assert.Equal(t, "Weekly restock", title)

	_, err = ValidateTitle(" ")
	assert.Equal(t, "title is required", validationMsg(t, err))

	_, err = ValidateTitle(strings.Repeat("é", 120))
	assert.NoError(t, err)

	_, err = ValidateTitle(strings.Repeat("t", 121))
	assert.Equal(t, "title must be 120 characters or fewer", validationMsg(t, err))
}

func TestValidateItemsDefaults(t *testing.T) {
	sku := "SKU-1"
	items, err := ValidateItems([]ItemInput{
		{Name: " Milk ", SKU: &sku},
		{Name: "Bread", Qty: json.Number("2.9"), Status: "collected", ID: "b1"},
		{Name: "Eggs", Qty: float64(3)},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, 1, items[0].Qty)
	assert.Equal(t, ItemPending, items[0].Status)
	assert.Equal(t, &sku, items[0].SKU)
	assert.Empty(t, items[0].ID)

	assert.Equal(t, 2, items[1].Qty, "fractional qty is truncated")
	assert.Equal(t, ItemCollected, items[1].Status)
	assert.Equal(t, "b1", items[1].ID)

	assert.Equal(t, 3, items[2].Qty)
}

func TestValidateItemsLimits(t *testing.T) {
	at := make([]ItemInput, MaxItems)
	for i := range at {
		at[i] = ItemInput{Name: "x"}
	}
	_, err := ValidateItems(at)
	require.NoError(t, err)

	_, err = ValidateItems(append(at, ItemInput{Name: "one too many"}))
	assert.Equal(t, "items cannot exceed 500 entries", validationMsg(t, err))

	_, err = ValidateItems(nil)
	assert.NoError(t, err)
}

func TestValidateItemsRejects(t *testing.T) {
	long := strings.Repeat("k", 121)
	cases := []struct {
		name string
		in   ItemInput
		msg  string
	}{
		{"blank name", ItemInput{Name: "  "}, "each item requires a non-empty name"},
		{"long name", ItemInput{Name: strings.Repeat("n", 201)}, "item name must be 200 characters or fewer"},
		{"zero qty", ItemInput{Name: "a", Qty: json.Number("0")}, "qty must be a positive number"},
		{"fraction below one", ItemInput{Name: "a", Qty: json.Number("0.5")}, "qty must be a positive number"},
		{"string qty", ItemInput{Name: "a", Qty: "3"}, "qty must be a positive number"},
		{"huge qty", ItemInput{Name: "a", Qty: json.Number("10001")}, "qty must be 10,000 or less"},
		{"bad status", ItemInput{Name: "a", Status: "lost"}, "status must be one of pending, collected, unavailable"},
		{"long sku", ItemInput{Name: "a", SKU: &long}, "sku must be 120 characters or fewer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateItems([]ItemInput{tc.in})
			assert.Equal(t, tc.msg, validationMsg(t, err))
		})
	}
}

func TestValidateItemsDuplicateIDs(t *testing.T) {
	_, err := ValidateItems([]ItemInput{{ID: "a", Name: "x"}, {ID: "a", Name: "y"}})
	assert.Equal(t, "item ids must be unique within a list", validationMsg(t, err))
}

func TestValidateItemStatus(t *testing.T) {
	s, err := ValidateItemStatus(" Collected ")
	require.NoError(t, err)
	assert.Equal(t, ItemCollected, s)

	_, err = ValidateItemStatus("")
	assert.Equal(t, "status is required", validationMsg(t, err))

	_, err = ValidateItemStatus("done")
	assert.Equal(t, "status must be one of pending, collected, unavailable", validationMsg(t, err))
}

func TestCoerceQtyCollected(t *testing.T) {
	q, err := CoerceQtyCollected(nil)
	require.NoError(t, err)
	assert.Nil(t, q)

	for _, v := range []any{json.Number("4"), float64(4), 4, "4", " 4 "} {
		q, err := CoerceQtyCollected(v)
		require.NoError(t, err, "%#v", v)
		require.NotNil(t, q)
		assert.Equal(t, 4, *q)
	}

	q, err = CoerceQtyCollected(json.Number("0"))
	require.NoError(t, err)
	assert.Equal(t, 0, *q)

	for _, v := range []any{json.Number("-1"), json.Number("1.5"), "abc", "", true, []any{1}} {
		_, err := CoerceQtyCollected(v)
		assert.Equal(t, "qtyCollected must be a non-negative integer", validationMsg(t, err), "%#v", v)
	}
}

func TestCoerceEmployeeID(t *testing.T) {
	s, err := CoerceEmployeeID(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = CoerceEmployeeID(" emp-7 ")
	require.NoError(t, err)
	assert.Equal(t, "emp-7", s)

	s, err = CoerceEmployeeID(json.Number("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = CoerceEmployeeID(map[string]any{"id": 1})
	assert.Equal(t, "employeeId must be a string or number", validationMsg(t, err))

	_, err = CoerceEmployeeID(strings.Repeat("e", 121))
	assert.Equal(t, "employeeId must be 120 characters or fewer", validationMsg(t, err))
}

func TestStoreErrKeepsDomainErrors(t *testing.T) {
	assert.Same(t, ErrNotFound, StoreErr("get", ErrNotFound))
	assert.Same(t, ErrResourceExhausted, StoreErr("get", ErrResourceExhausted))
	assert.Nil(t, StoreErr("get", nil))

	ve := &ValidationError{Msg: "bad"}
	assert.Equal(t, error(ve), StoreErr("create", ve))
	assert.True(t, IsValidation(StoreErr("create", ve)))

	var se *StorageError
	err := StoreErr("create", assert.AnError)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create", se.Op)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNewIDs(t *testing.T) {
	id := NewListID()
	assert.Len(t, id, 12)
	assert.NotEqual(t, id, NewListID())
	assert.True(t, strings.HasPrefix(NewItemID(), "item-"))
	assert.Len(t, NewItemID(), len("item-")+8)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusActive, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusActive))
}
