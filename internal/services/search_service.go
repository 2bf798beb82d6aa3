// Package services – SearchService
//
// This file implements public search over approved listings. The approved
// filter is unconditional: no combination of query parameters can surface a
// pending, rejected or expired listing. Category filtering resolves a slug
// first; an unknown slug yields an empty result set, not an error.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/repo"
)

// PageSize is the fixed number of listings per result page, shared by public
// search, the owner dashboard and the moderation queue.
const PageSize = 20

// SearchRepo defines the repository contract required by SearchService.
type SearchRepo interface {
	// GetCategoryBySlug resolves a category filter slug to its row.
	GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error)

	// SearchApprovedListings runs the filtered, paginated query.
	SearchApprovedListings(ctx context.Context, db *gorm.DB, f repo.SearchFilters, offset, limit int) ([]domain.Listing, int64, error)

	// ListRootCategories returns the top-level categories for browsing.
	ListRootCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error)
}

// Filters carries the public search parameters as received from the client.
type Filters struct {
	// Query is a case-insensitive substring matched against titles.
	Query string
	// CategorySlug narrows results to one category; unknown slugs match
	// nothing.
	CategorySlug string
	// City is an exact-match location filter.
	City string
}

// Page is one page of search results.
type Page struct {
	// Items holds the matched listings, newest first.
	Items []domain.Listing `json:"items"`
	// Total is the total match count across all pages.
	Total int64 `json:"total"`
	// Page is the 1-based page number actually served.
	Page int `json:"page"`
	// PageSize is the fixed page size.
	PageSize int `json:"page_size"`
}

// SearchService serves public listing search and category browsing.
type SearchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the search repository used by this service.
	Repo SearchRepo
}

// NewSearchService constructs a SearchService.
func NewSearchService(db *gorm.DB, r SearchRepo) *SearchService {
	return &SearchService{DB: db, Repo: r}
}

// Search returns one page of approved listings matching the filters, newest
// first. Filters compose with AND; all of them are optional. Pages below 1
// are clamped to 1.
func (s *SearchService) Search(ctx context.Context, f Filters, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	rf := repo.SearchFilters{
		TitleQuery: strings.TrimSpace(f.Query),
		City:       strings.TrimSpace(f.City),
	}

	if slug := strings.TrimSpace(f.CategorySlug); slug != "" {
		cat, err := s.Repo.GetCategoryBySlug(ctx, s.DB, slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown category filters everything out. Stale links and
				// typos get an ordinary empty page instead of a failure.
				return &Page{Items: []domain.Listing{}, Total: 0, Page: page, PageSize: PageSize}, nil
			}
			return nil, err
		}
		rf.CategoryID = cat.ID
	}

	items, total, err := s.Repo.SearchApprovedListings(ctx, s.DB, rf, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Listing{}
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: PageSize}, nil
}

// Categories returns the top-level categories ordered for display.
func (s *SearchService) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.Repo.ListRootCategories(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}
