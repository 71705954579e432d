// Package liststest holds the behaviour every lists.Store backend must share.
package liststest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Start is the fake clock origin. It has no sub-microsecond part so every
// backend round-trips it exactly.
var Start = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// Harness builds a fresh, empty store for one test.
type Harness struct {
	New func(t *testing.T, clk clock.Clock) lists.Store
	// CountItems returns the number of item rows stored for listID in the
	// store most recently returned by New.
	CountItems func(t *testing.T, listID string) int
}

func Run(t *testing.T, h Harness) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, h) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, h) })
	t.Run("ShopScoping", func(t *testing.T) { testShopScoping(t, h) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, h) })
	t.Run("UpdateKeepsQtyWhenOmitted", func(t *testing.T) { testUpdateCoalesce(t, h) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, h) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, h) })
	t.Run("Complete", func(t *testing.T) { testComplete(t, h) })
	t.Run("CompleteOtherShop", func(t *testing.T) { testCompleteOtherShop(t, h) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, h) })
	t.Run("HealthCheck", func(t *testing.T) {
		require.NoError(t, h.New(t, clock.NewFake(Start)).HealthCheck(context.Background()))
	})
}

func sampleItems() []lists.NewItem {
	sku := "SKU-100"
	return []lists.NewItem{
		{ID: "milk", SKU: &sku, Name: "Milk", Qty: 2, Status: lists.ItemPending},
		{Name: "Bread", Qty: 1, Status: lists.ItemPending},
	}
}

func testCreateAndGet(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))

	created, err := s.CreateList(ctx, "Weekly restock", "shop-1", sampleItems())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, lists.StatusActive, created.Status)
	assert.True(t, created.CreatedAt.Equal(Start))
	require.Len(t, created.Items, 2)
	assert.Equal(t, "milk", created.Items[0].ID)
	assert.NotEmpty(t, created.Items[1].ID)

	got, err := s.GetList(ctx, created.ID, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Weekly restock", got.Title)
	require.NotNil(t, got.ShopID)
	assert.Equal(t, "shop-1", *got.ShopID)
	assert.True(t, got.CreatedAt.Equal(Start))
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.CompletedBy)

	require.Len(t, got.Items, 2)
	milk := got.Items[0]
	assert.Equal(t, "milk", milk.ID)
	assert.Equal(t, "Milk", milk.Name)
	require.NotNil(t, milk.SKU)
	assert.Equal(t, "SKU-100", *milk.SKU)
	assert.Equal(t, 2, milk.QtyRequested)
	assert.Nil(t, milk.QtyCollected)
	assert.Equal(t, lists.ItemPending, milk.Status)
	assert.Equal(t, 1, milk.Version)

	assert.Equal(t, created.Items[1].ID, got.Items[1].ID)
	assert.Nil(t, got.Items[1].SKU)

	empty, err := s.CreateList(ctx, "Nothing yet", "shop-1", nil)
	require.NoError(t, err)
	got, err = s.GetList(ctx, empty.ID, "shop-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Items)
}

func testGetMissing(t *testing.T, h Harness) {
	s := h.New(t, clock.NewFake(Start))
	got, err := s.GetList(context.Background(), "does-not-exist", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	none, err := s.ListLists(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testShopScoping(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))

	owned, err := s.CreateList(ctx, "Shop A list", "shop-a", sampleItems())
	require.NoError(t, err)
	shared, err := s.CreateList(ctx, "Unscoped list", "", nil)
	require.NoError(t, err)
	assert.Nil(t, shared.ShopID)

	for _, shop := range []string{"", "shop-a"} {
		got, err := s.GetList(ctx, owned.ID, shop)
		require.NoError(t, err)
		assert.NotNil(t, got, "shop %q", shop)
	}

	got, err := s.GetList(ctx, owned.ID, "shop-b")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetList(ctx, shared.ID, "shop-b")
	require.NoError(t, err)
	assert.NotNil(t, got, "a list without a shop is visible to every shop")
}

func testListNewestFirst(t *testing.T, h Harness) {
	ctx := context.Background()
	clk := clock.NewFake(Start)
	s := h.New(t, clk)

	first, err := s.CreateList(ctx, "first", "shop-a", sampleItems())
	require.NoError(t, err)
	clk.Advance(time.Minute)
	shared, err := s.CreateList(ctx, "shared", "", nil)
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = s.CreateList(ctx, "elsewhere", "shop-b", nil)
	require.NoError(t, err)
	clk.Advance(time.Minute)
	last, err := s.CreateList(ctx, "last", "shop-a", nil)
	require.NoError(t, err)

	out, err := s.ListLists(ctx, "shop-a")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, last.ID, out[0].ID)
	assert.Equal(t, shared.ID, out[1].ID)
	assert.Equal(t, first.ID, out[2].ID)

	assert.Len(t, out[2].Items, 2)
	assert.Equal(t, "milk", out[2].Items[0].ID)
	assert.NotNil(t, out[0].Items)
	assert.Empty(t, out[0].Items)

	all, err := s.ListLists(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testUpdateCoalesce(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))
	l, err := s.CreateList(ctx, "list", "shop-a", sampleItems())
	require.NoError(t, err)

	three := 3
	it, err := s.UpdateItem(ctx, l.ID, "milk", lists.ItemCollected, &three)
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, lists.ItemCollected, it.Status)
	require.NotNil(t, it.QtyCollected)
	assert.Equal(t, 3, *it.QtyCollected)
	assert.Equal(t, 2, it.Version)
	assert.Equal(t, 2, it.QtyRequested)

	it, err = s.UpdateItem(ctx, l.ID, "milk", lists.ItemUnavailable, nil)
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, lists.ItemUnavailable, it.Status)
	require.NotNil(t, it.QtyCollected, "omitted qtyCollected keeps the stored value")
	assert.Equal(t, 3, *it.QtyCollected)
	assert.Equal(t, 3, it.Version)

	zero := 0
	it, err = s.UpdateItem(ctx, l.ID, "milk", lists.ItemPending, &zero)
	require.NoError(t, err)
	assert.Equal(t, 0, *it.QtyCollected)
	assert.Equal(t, 4, it.Version)

	got, err := s.GetList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Items[0].Version)
	assert.Equal(t, 1, got.Items[1].Version, "other items are untouched")

	bread := got.Items[1].ID
	it, err = s.UpdateItem(ctx, l.ID, bread, lists.ItemCollected, nil)
	require.NoError(t, err)
	assert.Nil(t, it.QtyCollected, "a null qtyCollected stays null")
	assert.Equal(t, 2, it.Version)
}

func testUpdateMissing(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))
	l, err := s.CreateList(ctx, "list", "shop-a", sampleItems())
	require.NoError(t, err)

	it, err := s.UpdateItem(ctx, l.ID, "no-such-item", lists.ItemCollected, nil)
	require.NoError(t, err)
	assert.Nil(t, it)

	it, err = s.UpdateItem(ctx, "no-such-list", "milk", lists.ItemCollected, nil)
	require.NoError(t, err)
	assert.Nil(t, it)
}

func testConcurrentUpdates(t *testing.T, h Harness) {
	const n = 12
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))
	l, err := s.CreateList(ctx, "busy list", "shop-a", sampleItems())
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions []int
		errs     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			it, err := s.UpdateItem(ctx, l.ID, "milk", lists.ItemCollected, &q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			versions = append(versions, it.Version)
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, versions, n)
	sort.Ints(versions)
	for i, v := range versions {
		assert.Equal(t, i+2, v, "every update observes a distinct version")
	}

	got, err := s.GetList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1+n, got.Items[0].Version)
}

func testComplete(t *testing.T, h Harness) {
	ctx := context.Background()
	clk := clock.NewFake(Start)
	s := h.New(t, clk)
	l, err := s.CreateList(ctx, "to finish", "shop-a", sampleItems())
	require.NoError(t, err)

	clk.Advance(90 * time.Minute)
	c, err := s.CompleteList(ctx, l.ID, "emp-7", "shop-a")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, l.ID, c.ListID)
	assert.Equal(t, lists.StatusCompleted, c.Status)
	assert.True(t, c.CompletedAt.Equal(Start.Add(90*time.Minute)))
	require.NotNil(t, c.CompletedBy)
	assert.Equal(t, "emp-7", *c.CompletedBy)
	require.NotNil(t, c.ShopID)
	assert.Equal(t, "shop-a", *c.ShopID)

	got, err := s.GetList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, lists.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(c.CompletedAt))

	again, err := s.CompleteList(ctx, l.ID, "emp-8", "")
	require.NoError(t, err)
	assert.Nil(t, again, "a completed list cannot be completed twice")

	_, err = s.UpdateItem(ctx, l.ID, "milk", lists.ItemCollected, nil)
	assert.ErrorIs(t, err, lists.ErrListCompleted)

	anon, err := s.CreateList(ctx, "anonymous", "shop-a", nil)
	require.NoError(t, err)
	c, err = s.CompleteList(ctx, anon.ID, "", "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Nil(t, c.CompletedBy)

	missing, err := s.CompleteList(ctx, "no-such-list", "emp-7", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testCompleteOtherShop(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))
	l, err := s.CreateList(ctx, "shop a only", "shop-a", nil)
	require.NoError(t, err)

	c, err := s.CompleteList(ctx, l.ID, "emp-1", "shop-b")
	require.NoError(t, err)
	assert.Nil(t, c)

	got, err := s.GetList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, lists.StatusActive, got.Status)
}

func testDeleteCascades(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t, clock.NewFake(Start))
	l, err := s.CreateList(ctx, "to delete", "shop-a", sampleItems())
	require.NoError(t, err)
	require.Equal(t, 2, h.CountItems(t, l.ID))

	ok, err := s.DeleteList(ctx, l.ID, "shop-b")
	require.NoError(t, err)
	assert.False(t, ok, "other shops cannot delete")

	ok, err = s.DeleteList(ctx, l.ID, "shop-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, h.CountItems(t, l.ID))

	got, err := s.GetList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = s.DeleteList(ctx, l.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	done, err := s.CreateList(ctx, "completed then deleted", "shop-a", sampleItems())
	require.NoError(t, err)
	_, err = s.CompleteList(ctx, done.ID, "emp-1", "")
	require.NoError(t, err)
	ok, err = s.DeleteList(ctx, done.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)
}
