package resources

import (
	"context"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
)

const pathParts = "/parts"

func partID(p Part) ID { return p.ID }

type Parts struct {
	base
	parts guarded[Part]
}

func NewParts(api remote.API, notifier notify.Notifier) *Parts {
	return &Parts{base: newBase(api, notifier)}
}

func (s *Parts) Parts() []Part {
	return s.parts.get()
}

// SetParts replaces the list, for static data.
func (s *Parts) SetParts(parts []Part) {
	s.parts.set(append([]Part{}, parts...))
}

// FetchParts loads every part. Availability is coerced to a boolean on decode.
func (s *Parts) FetchParts(ctx context.Context) result.Result {
	defer s.busy()()

	body, err := s.api.Get(ctx, pathParts)
	if err != nil {
		return s.fail("Failed to fetch parts", "Failed to fetch parts", err)
	}
	parts, err := decodeList[Part](body, "part")
	if err != nil {
		return s.fail("Failed to fetch parts", "Failed to fetch parts", err)
	}
	s.parts.set(parts)
	return result.OK()
}

func (s *Parts) FetchPart(ctx context.Context, id ID) (*Part, result.Result) {
	defer s.busy()()

	body, err := s.api.Get(ctx, itemPath(pathParts, id))
	if err != nil {
		return nil, s.fail("Failed to fetch part", "Failed to fetch part", err)
	}
	part, err := decodeOne[Part](body, "part")
	if err != nil {
		return nil, s.fail("Failed to fetch part", "Failed to fetch part", err)
	}
	return part, result.OK()
}

// CreatePart creates a part and adds the stored record to the list.
func (s *Parts) CreatePart(ctx context.Context, part Part) (*Part, result.Result) {
	defer s.busy()()

	body, err := s.api.Post(ctx, pathParts, part)
	if err != nil {
		return nil, s.fail("Failed to create part", "Failed to create part", err)
	}
	created, err := decodeOne[Part](body, "part")
	if err != nil {
		return nil, s.fail("Failed to create part", "Failed to create part", err)
	}
	s.parts.update(func(items []Part) []Part { return upsert(items, *created, partID) })
	return created, result.OK()
}

func (s *Parts) UpdatePart(ctx context.Context, id ID, part Part) (*Part, result.Result) {
	defer s.busy()()

	body, err := s.api.Put(ctx, itemPath(pathParts, id), part)
	if err != nil {
		return nil, s.fail("Failed to update part", "Failed to update part", err)
	}
	updated, err := decodeOne[Part](body, "part")
	if err != nil {
		return nil, s.fail("Failed to update part", "Failed to update part", err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	s.parts.update(func(items []Part) []Part { return upsert(items, *updated, partID) })
	return updated, result.OK()
}

func (s *Parts) DeletePart(ctx context.Context, id ID) result.Result {
	defer s.busy()()

	if _, err := s.api.Delete(ctx, itemPath(pathParts, id)); err != nil {
		return s.fail("Failed to delete part", "Failed to delete part", err)
	}
	s.parts.update(func(items []Part) []Part { return remove(items, id, partID) })
	return result.OK()
}

// InitializeData loads the page's data.
func (s *Parts) InitializeData(ctx context.Context) result.Result {
	defer s.initialising()()
	return s.FetchParts(ctx)
}
