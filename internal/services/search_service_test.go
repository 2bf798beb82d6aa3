package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/repo"
)

// fakeSearchRepo is a hand-rolled SearchRepo double that records the filters
// it is called with.
type fakeSearchRepo struct {
	categories map[string]*domain.Category
	roots      []domain.Category
	items      []domain.Listing
	total      int64
	gotFilters repo.SearchFilters
	gotOffset  int
	gotLimit   int
	searched   bool
}

func (f *fakeSearchRepo) GetCategoryBySlug(_ context.Context, _ *gorm.DB, slug string) (*domain.Category, error) {
	if c, ok := f.categories[slug]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSearchRepo) SearchApprovedListings(_ context.Context, _ *gorm.DB, filters repo.SearchFilters, offset, limit int) ([]domain.Listing, int64, error) {
	f.searched = true
	f.gotFilters, f.gotOffset, f.gotLimit = filters, offset, limit
	return f.items, f.total, nil
}

func (f *fakeSearchRepo) ListRootCategories(_ context.Context, _ *gorm.DB) ([]domain.Category, error) {
	return f.roots, nil
}

func TestSearch_FilterForwardingAndPaging(t *testing.T) {
	fr := &fakeSearchRepo{
		categories: map[string]*domain.Category{"vehicles": {ID: "cat-1", Slug: "vehicles"}},
		items:      []domain.Listing{{ID: "l1"}},
		total:      41,
	}
	svc := NewSearchService(nil, fr)

	page, err := svc.Search(context.Background(), Filters{
		Query:        "  دوچرخه ",
		CategorySlug: "vehicles",
		City:         " تهران ",
	}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := repo.SearchFilters{TitleQuery: "دوچرخه", CategoryID: "cat-1", City: "تهران"}
	if fr.gotFilters != want {
		t.Fatalf("filters = %+v; want %+v", fr.gotFilters, want)
	}
	if fr.gotOffset != 2*PageSize || fr.gotLimit != PageSize {
		t.Fatalf("offset=%d limit=%d", fr.gotOffset, fr.gotLimit)
	}
	if page.Total != 41 || page.Page != 3 || page.PageSize != PageSize || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestSearch_PageClamp(t *testing.T) {
	fr := &fakeSearchRepo{}
	svc := NewSearchService(nil, fr)

	page, err := svc.Search(context.Background(), Filters{}, -5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Page != 1 || fr.gotOffset != 0 {
		t.Fatalf("page=%d offset=%d; want 1/0", page.Page, fr.gotOffset)
	}
}

func TestSearch_UnknownCategorySlugYieldsEmptyPage(t *testing.T) {
	fr := &fakeSearchRepo{items: []domain.Listing{{ID: "leak"}}, total: 1}
	svc := NewSearchService(nil, fr)

	page, err := svc.Search(context.Background(), Filters{CategorySlug: "no-such"}, 1)
	if err != nil {
		t.Fatalf("unknown slug must not error: %v", err)
	}
	if fr.searched {
		t.Fatalf("search ran despite unresolvable category")
	}
	if page.Total != 0 || page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("page = %+v; want empty", page)
	}
}

func TestSearch_NilItemsBecomeEmptySlice(t *testing.T) {
	svc := NewSearchService(nil, &fakeSearchRepo{items: nil, total: 0})
	page, err := svc.Search(context.Background(), Filters{}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Items == nil {
		t.Fatalf("nil items leaked; JSON would render null instead of []")
	}
}

func TestCategories_NilBecomesEmptySlice(t *testing.T) {
	svc := NewSearchService(nil, &fakeSearchRepo{})
	cats, err := svc.Categories(context.Background())
	if err != nil || cats == nil {
		t.Fatalf("cats=%v err=%v", cats, err)
	}

	svc = NewSearchService(nil, &fakeSearchRepo{roots: []domain.Category{{ID: "c1"}}})
	cats, err = svc.Categories(context.Background())
	if err != nil || len(cats) != 1 {
		t.Fatalf("cats=%v err=%v", cats, err)
	}
}
