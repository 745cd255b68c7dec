package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
)

type fakeSeller struct {
	mu       sync.Mutex
	queries  []commerce.PageQuery
	list     func(ctx context.Context, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error)
	statuses []string
	update   func(itemID uint, status string) error
}

func (f *fakeSeller) ListSellerItems(ctx context.Context, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	list := f.list
	f.mu.Unlock()
	return list(ctx, q)
}

func (f *fakeSeller) UpdateItemStatus(_ context.Context, itemID uint, status string) error {
	f.mu.Lock()
	f.statuses = append(f.statuses, status)
	update := f.update
	f.mu.Unlock()
	if update == nil {
		return nil
	}
	return update(itemID, status)
}

func (f *fakeSeller) recorded() []commerce.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]commerce.PageQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

func staticRows(total int, rows ...commerce.Item) func(context.Context, commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	return func(context.Context, commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
		return &commerce.ListEnvelope[commerce.Item]{Data: rows, Total: total}, nil
	}
}

func waitSettled(t *testing.T, table *Table) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := table.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}

func TestSearchBurstIssuesSingleFetch(t *testing.T) {
	client := &fakeSeller{list: staticRows(1, commerce.Item{ID: 1, Status: "active"})}
	table := NewTable(client, Options{PageSize: 10, Debounce: 30 * time.Millisecond})
	defer table.Close()

	table.SetPage(3)
	for _, q := range []string{"a", "ab", "abc"} {
		table.SetSearch(q)
	}
	waitSettled(t, table)

	queries := client.recorded()
	if len(queries) != 1 {
		t.Fatalf("expected exactly one fetch, got %d", len(queries))
	}
	if queries[0].Search != "abc" || queries[0].Offset != 0 || queries[0].Limit != 10 {
		t.Fatalf("unexpected query: %+v", queries[0])
	}
	snap := table.Snapshot()
	if snap.PageIndex != 0 || snap.Loading || len(snap.Rows) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestPagingOffsetsAndBoundaries(t *testing.T) {
	client := &fakeSeller{list: staticRows(23)}
	table := NewTable(client, Options{PageSize: 5, Debounce: time.Millisecond})
	defer table.Close()

	table.SetPage(2)
	waitSettled(t, table)
	if q := client.recorded()[0]; q.Offset != 10 || q.Limit != 5 {
		t.Fatalf("unexpected page query: %+v", q)
	}
	snap := table.Snapshot()
	if snap.TotalPages != 5 || !snap.CanPrev || !snap.CanNext {
		t.Fatalf("unexpected paging state: %+v", snap)
	}

	table.SetPage(4)
	waitSettled(t, table)
	if snap := table.Snapshot(); snap.CanNext {
		t.Fatalf("last page should not allow next: %+v", snap)
	}

	table.SetPageSize(50)
	waitSettled(t, table)
	if snap := table.Snapshot(); snap.PageIndex != 0 || snap.TotalPages != 1 || snap.CanPrev || snap.CanNext {
		t.Fatalf("single page should disable both directions: %+v", snap)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client := &fakeSeller{list: func(_ context.Context, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
		if q.Search == "old" {
			close(entered)
			<-release
			return &commerce.ListEnvelope[commerce.Item]{Data: []commerce.Item{{ID: 99, Title: "old"}}, Total: 1}, nil
		}
		return &commerce.ListEnvelope[commerce.Item]{Data: []commerce.Item{{ID: 1, Title: "new"}}, Total: 1}, nil
	}}
	table := NewTable(client, Options{Debounce: time.Millisecond})
	defer table.Close()

	table.SetSearch("old")
	<-entered
	table.SetSearch("new")
	waitSettled(t, table)
	close(release)
	time.Sleep(20 * time.Millisecond)

	snap := table.Snapshot()
	if len(snap.Rows) != 1 || snap.Rows[0].Title != "new" {
		t.Fatalf("stale response must not overwrite newer rows: %+v", snap.Rows)
	}
}

func TestFetchErrorIsNormalized(t *testing.T) {
	client := &fakeSeller{list: func(context.Context, commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
		return nil, &commerce.APIError{Status: 500, Body: []byte(`{"message":"Vendor not found"}`)}
	}}
	table := NewTable(client, Options{Debounce: time.Millisecond})
	defer table.Close()
	table.Refresh()
	waitSettled(t, table)
	if snap := table.Snapshot(); snap.Error != "Vendor not found" || snap.Loading {
		t.Fatalf("unexpected error state: %+v", snap)
	}
}

func loadedTable(t *testing.T, client *fakeSeller) *Table {
	t.Helper()
	client.list = staticRows(2,
		commerce.Item{ID: 1, Status: constants.ItemStatusActive},
		commerce.Item{ID: 2, Status: constants.ItemStatusActive},
	)
	table := NewTable(client, Options{Debounce: time.Millisecond})
	table.Refresh()
	waitSettled(t, table)
	return table
}

func TestStatusChangeRollsBackOnFailure(t *testing.T) {
	client := &fakeSeller{update: func(uint, string) error {
		return &commerce.APIError{Status: 500, Body: []byte("boom")}
	}}
	table := loadedTable(t, client)
	defer table.Close()

	state, err := table.Cell(1).Change(context.Background(), constants.ItemStatusInactive)
	if err == nil || !errors.Is(err, ErrStatusUpdate) {
		t.Fatalf("expected ErrStatusUpdate, got %v", err)
	}
	if commerce.HumanMessage(err, "") != "Failed to update status" {
		t.Fatalf("unexpected message: %q", commerce.HumanMessage(err, ""))
	}
	if state.Value != constants.ItemStatusActive || state.Phase != PhaseRolledBack {
		t.Fatalf("expected rollback to active, got %+v", state)
	}
	if table.Snapshot().Rows[0].Status != constants.ItemStatusActive {
		t.Fatalf("table row should be untouched")
	}
}

func TestStatusChangeCommitsAndPatchesRow(t *testing.T) {
	client := &fakeSeller{}
	table := loadedTable(t, client)
	defer table.Close()

	state, err := table.Cell(2).Change(context.Background(), " Inactive ")
	if err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if state.Phase != PhaseCommitted || state.Value != constants.ItemStatusInactive {
		t.Fatalf("unexpected state: %+v", state)
	}
	rows := table.Snapshot().Rows
	if rows[1].Status != constants.ItemStatusInactive || rows[0].Status != constants.ItemStatusActive {
		t.Fatalf("only the changed row should be patched: %+v", rows)
	}
	if _, err := table.Cell(2).Change(context.Background(), "archived"); !errors.Is(err, commerce.ErrValidation) {
		t.Fatalf("unknown status should fail validation, got %v", err)
	}
}

func TestStaleStatusSettlementDoesNotOverwrite(t *testing.T) {
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	client := &fakeSeller{update: func(_ uint, status string) error {
		if status == constants.ItemStatusInactive {
			close(firstEntered)
			<-releaseFirst
			return errors.New("timeout")
		}
		return nil
	}}
	table := loadedTable(t, client)
	defer table.Close()
	cell := table.Cell(1)

	done := make(chan error, 1)
	go func() {
		_, err := cell.Change(context.Background(), constants.ItemStatusInactive)
		done <- err
	}()
	<-firstEntered
	if _, err := cell.Change(context.Background(), constants.ItemStatusActive); err != nil {
		t.Fatalf("second change failed: %v", err)
	}
	close(releaseFirst)
	<-done

	if state := cell.State(); state.Value != constants.ItemStatusActive || state.Phase != PhaseCommitted {
		t.Fatalf("stale failure must not roll back the newer value: %+v", state)
	}
}

func TestStatusChangeRejectsRowOutsideTable(t *testing.T) {
	updates := 0
	client := &fakeSeller{update: func(uint, string) error {
		updates++
		return errors.New("boom")
	}}
	table := NewTable(client, Options{Debounce: time.Millisecond})
	defer table.Close()

	state, err := table.Cell(42).Change(context.Background(), constants.ItemStatusInactive)
	if !errors.Is(err, ErrItemNotLoaded) {
		t.Fatalf("want ErrItemNotLoaded, got %v", err)
	}
	if state.Phase == PhasePending || state.Phase == PhaseRolledBack {
		t.Fatalf("unloaded row must not enter the optimistic flow: %+v", state)
	}
	if updates != 0 {
		t.Fatalf("no upstream update expected, got %d", updates)
	}
}

func TestStatusRollbackUsesRefreshedRow(t *testing.T) {
	status := constants.ItemStatusActive
	var mu sync.Mutex
	fail := false
	client := &fakeSeller{update: func(uint, string) error {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return &commerce.APIError{Status: 500, Body: []byte("boom")}
		}
		return nil
	}}
	client.list = func(context.Context, commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
		mu.Lock()
		defer mu.Unlock()
		return &commerce.ListEnvelope[commerce.Item]{Data: []commerce.Item{{ID: 42, Status: status}}, Total: 1}, nil
	}
	table := NewTable(client, Options{Debounce: time.Millisecond})
	defer table.Close()
	table.Refresh()
	waitSettled(t, table)

	cell := table.Cell(42)
	if _, err := cell.Change(context.Background(), constants.ItemStatusInactive); err != nil {
		t.Fatalf("first change failed: %v", err)
	}

	// 其他会话把商品改回上架，本表格重新加载
	mu.Lock()
	status = constants.ItemStatusActive
	fail = true
	mu.Unlock()
	table.Refresh()
	waitSettled(t, table)
	if row := table.Snapshot().Rows[0].Status; row != constants.ItemStatusActive {
		t.Fatalf("refresh should bring back active, got %s", row)
	}

	for _, target := range []*StatusCell{cell, table.Cell(42)} {
		state, err := target.Change(context.Background(), constants.ItemStatusInactive)
		if !errors.Is(err, ErrStatusUpdate) {
			t.Fatalf("want ErrStatusUpdate, got %v", err)
		}
		if state.Value != constants.ItemStatusActive || state.Phase != PhaseRolledBack {
			t.Fatalf("rollback should restore the refreshed row status, got %+v", state)
		}
	}
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []commerce.ItemListQuery
	err     error
}

func (f *fakeSearcher) ListItems(_ context.Context, q commerce.ItemListQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return &commerce.ListEnvelope[commerce.Item]{Data: []commerce.Item{{ID: 5, Title: q.Search}}, Total: 1}, nil
}

func TestQuickSearch(t *testing.T) {
	client := &fakeSearcher{}
	search := NewQuickSearch(client, 0, time.Millisecond, nil)
	defer search.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	search.Search("lamp")
	if err := search.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if snap := search.Snapshot(); len(snap.Results) != 1 || snap.Results[0].Title != "lamp" {
		t.Fatalf("unexpected results: %+v", snap)
	}
	if q := client.queries[0]; q.Limit != 10 || q.Offset != 0 || q.Search != "lamp" {
		t.Fatalf("unexpected query: %+v", q)
	}

	search.Search("   ")
	if snap := search.Snapshot(); len(snap.Results) != 0 || snap.Loading {
		t.Fatalf("blank query should clear results: %+v", snap)
	}
	if len(client.queries) != 1 {
		t.Fatalf("blank query must not fetch")
	}

	client.mu.Lock()
	client.err = errors.New("down")
	client.mu.Unlock()
	search.Search("desk")
	_ = search.Wait(ctx)
	if snap := search.Snapshot(); len(snap.Results) != 0 {
		t.Fatalf("error should clear results: %+v", snap)
	}
}

func validProductForm() ItemForm {
	return ItemForm{
		Kind:         constants.ItemTypeProducts,
		Title:        "handmade oak stool",
		Description:  strings.Repeat("solid oak ", 12),
		CategoryID:   "4",
		Weight:       "2.5",
		SalesPrice:   "40.00",
		RegularPrice: "55.00",
		Quantity:     "3",
		Images: []ImageUpload{
			{Filename: "a.jpg", Size: 1024, Data: []byte("a")},
			{Filename: "b.png", Size: 2048, Data: []byte("b")},
		},
	}
}

func TestItemFormValidation(t *testing.T) {
	if err := validProductForm().Validate(); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(f *ItemForm)
		want   string
	}{
		{"short title", func(f *ItemForm) { f.Title = "abc" }, "Title: Must be at least 5 characters"},
		{"short description", func(f *ItemForm) { f.Description = "short" }, "Description: Must be at least 100 characters"},
		{"one image", func(f *ItemForm) { f.Images = f.Images[:1] }, "Images: Upload at least 2 images"},
		{"bad extension", func(f *ItemForm) { f.Images[0].Filename = "a.bmp" }, "Filename: Must be a JPG, PNG, WebP, GIF or SVG image"},
		{"large image", func(f *ItemForm) { f.Images[0].Size = 3 << 20 }, "Size: Must be less than or equal to 2097152"},
		{"dimension", func(f *ItemForm) { f.Height = "0.01" }, "Height: Must be between 0.1 and 10000"},
		{"sales above regular", func(f *ItemForm) { f.SalesPrice = "60" }, "Sales price must be lower than the regular price"},
		{"fractional quantity", func(f *ItemForm) { f.Quantity = "1.5" }, "Quantity: Must be a non-negative integer"},
		{"negative price", func(f *ItemForm) { f.RegularPrice = "-1" }, "Regular Price: Must be a non-negative amount"},
	}
	for _, tc := range cases {
		form := validProductForm()
		form.Images = append([]ImageUpload(nil), form.Images...)
		tc.mutate(&form)
		err := form.Validate()
		if err == nil || commerce.HumanMessage(err, "") != tc.want {
			t.Fatalf("%s: want %q got %v", tc.name, tc.want, err)
		}
	}
}

func TestServiceFormNeedsSchedule(t *testing.T) {
	form := validProductForm()
	form.Kind = constants.ItemTypeServices
	if err := form.Validate(); err == nil || !strings.HasPrefix(err.Error(), "Pricing Model") {
		t.Fatalf("expected pricing model error, got %v", err)
	}
	form.PricingModel = "fixed"
	form.DeliveryMethod = "onsite"
	form.EstimatedDeliveryTime = "2 hours"
	form.AvailableDays = []string{"monday"}
	form.AvailableFrom = "17:00"
	form.AvailableTo = "09:00"
	if err := form.Validate(); err == nil || err.Error() != "Available To: Must be later than Available From" {
		t.Fatalf("expected ordering error, got %v", err)
	}
	form.AvailableFrom = "09:00"
	form.AvailableTo = "17:00"
	if err := form.Validate(); err != nil {
		t.Fatalf("valid service form rejected: %v", err)
	}
	payload, err := form.Payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if payload.Value("title") != "Handmade Oak Stool" || payload.Value("available_days") != `["monday"]` || payload.Value("notify_user") != "0" {
		t.Fatalf("unexpected payload fields: %+v", payload.Fields)
	}
	if len(payload.Files) != 2 || payload.Files[0].Field != "images[]" {
		t.Fatalf("unexpected payload files: %+v", payload.Files)
	}
}
