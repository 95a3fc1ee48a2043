package resources

import (
	"context"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
)

const (
	pathPickupPoints       = "/pickup-points"
	pathVendorPickupPoints = "/vendor/pickup-points"
)

type PickupPoints struct {
	base
	points guarded[PickupPoint]
}

func NewPickupPoints(api remote.API, notifier notify.Notifier) *PickupPoints {
	return &PickupPoints{base: newBase(api, notifier)}
}

func (s *PickupPoints) PickupPoints() []PickupPoint {
	return s.points.get()
}

func (s *PickupPoints) fetchList(ctx context.Context, path string) result.Result {
	defer s.busy()()

	body, err := s.api.Get(ctx, path)
	if err != nil {
		return s.fail("Failed to fetch pickup points", "Failed to fetch pickup points", err)
	}
	points, err := decodeList[PickupPoint](body, "pickupPoint")
	if err != nil {
		return s.fail("Failed to fetch pickup points", "Failed to fetch pickup points", err)
	}
	s.points.set(points)
	return result.OK()
}

// FetchVendorPickupPoints loads the signed-in vendor's own pickup points.
func (s *PickupPoints) FetchVendorPickupPoints(ctx context.Context) result.Result {
	return s.fetchList(ctx, pathVendorPickupPoints)
}

func (s *PickupPoints) FetchPickupPoints(ctx context.Context) result.Result {
	return s.fetchList(ctx, pathPickupPoints)
}

func (s *PickupPoints) FetchPickupPoint(ctx context.Context, id ID) (*PickupPoint, result.Result) {
	defer s.initialising()()

	body, err := s.api.Get(ctx, itemPath(pathPickupPoints, id))
	if err != nil {
		return nil, s.fail("Failed to fetch pickup point", "Failed to fetch pickup point", err)
	}
	point, err := decodeOne[PickupPoint](body, "pickupPoint")
	if err != nil {
		return nil, s.fail("Failed to fetch pickup point", "Failed to fetch pickup point", err)
	}
	return point, result.OK()
}

func (s *PickupPoints) CreatePickupPoint(ctx context.Context, point PickupPoint) (*PickupPoint, result.Result) {
	defer s.initialising()()

	body, err := s.api.Post(ctx, pathPickupPoints, point)
	if err != nil {
		return nil, s.fail("Failed to create pickup point", "Failed to create pickup point", err)
	}
	s.succeed("Pickup point created successfully")
	created, _ := decodeOne[PickupPoint](body, "pickupPoint")
	return created, result.OK()
}

func (s *PickupPoints) UpdatePickupPoint(ctx context.Context, id ID, point PickupPoint) (*PickupPoint, result.Result) {
	defer s.initialising()()

	body, err := s.api.Put(ctx, itemPath(pathPickupPoints, id), point)
	if err != nil {
		return nil, s.fail("Failed to update pickup point", "Failed to update pickup point", err)
	}
	s.succeed("Pickup point updated successfully")
	updated, _ := decodeOne[PickupPoint](body, "pickupPoint")
	return updated, result.OK()
}

func (s *PickupPoints) DeletePickupPoint(ctx context.Context, id ID) result.Result {
	defer s.initialising()()

	if _, err := s.api.Delete(ctx, itemPath(pathPickupPoints, id)); err != nil {
		return s.fail("Failed to delete pickup point", "Failed to delete pickup point", err)
	}
	s.succeed("Pickup point deleted successfully")
	return result.OK()
}

func (s *PickupPoints) InitializeData(ctx context.Context) result.Result {
	defer s.initialising()()
	return s.FetchPickupPoints(ctx)
}
