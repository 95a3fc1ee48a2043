package resources

import (
	"context"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
)

const pathCategories = "/categories"

type Categories struct {
	base
	categories guarded[Category]
}

func NewCategories(api remote.API, notifier notify.Notifier) *Categories {
	return &Categories{base: newBase(api, notifier)}
}

func (s *Categories) Categories() []Category {
	return s.categories.get()
}

func (s *Categories) FetchCategories(ctx context.Context) result.Result {
	defer s.busy()()

	body, err := s.api.Get(ctx, pathCategories)
	if err != nil {
		return s.fail("Failed to fetch categories", "Failed to fetch categories", err)
	}
	categories, err := decodeList[Category](body, "category")
	if err != nil {
		return s.fail("Failed to fetch categories", "Failed to fetch categories", err)
	}
	s.categories.set(categories)
	return result.OK()
}

func (s *Categories) FetchCategory(ctx context.Context, id ID) (*Category, result.Result) {
	defer s.busy()()

	body, err := s.api.Get(ctx, itemPath(pathCategories, id))
	if err != nil {
		return nil, s.fail("Failed to fetch category", "Failed to fetch category", err)
	}
	category, err := decodeOne[Category](body, "category")
	if err != nil {
		return nil, s.fail("Failed to fetch category", "Failed to fetch category", err)
	}
	return category, result.OK()
}

// mutate runs call, refreshes the list and then announces success.
func (s *Categories) mutate(ctx context.Context, call func() error, success, failure, fallback string) result.Result {
	defer s.busy()()

	if err := call(); err != nil {
		return s.fail(failure, fallback, err)
	}
	s.FetchCategories(ctx)
	s.succeed(success)
	return result.OK()
}

func (s *Categories) CreateCategory(ctx context.Context, category Category) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Post(ctx, pathCategories, category)
		return err
	}, "Category created successfully!", "Failed to create category", "Failed to create category")
}

func (s *Categories) UpdateCategory(ctx context.Context, id ID, category Category) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Put(ctx, itemPath(pathCategories, id), category)
		return err
	}, "Category updated successfully!", "Failed to update category", "Failed to update category")
}

func (s *Categories) DeleteCategory(ctx context.Context, id ID) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Delete(ctx, itemPath(pathCategories, id))
		return err
	}, "Category deleted successfully!", "Failed to delete category", "Failed to delete category")
}

func (s *Categories) InitializeData(ctx context.Context) result.Result {
	defer s.initialising()()
	return s.FetchCategories(ctx)
}
