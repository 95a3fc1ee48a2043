package resources

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
)

const pathVendors = "/vendors"

type Vendors struct {
	base
	vendors guarded[Vendor]
}

func NewVendors(api remote.API, notifier notify.Notifier) *Vendors {
	return &Vendors{base: newBase(api, notifier)}
}

func (s *Vendors) Vendors() []Vendor {
	return s.vendors.get()
}

// FetchVendors loads data.vendor. Failures are notified and returned so callers can chain.
func (s *Vendors) FetchVendors(ctx context.Context) ([]Vendor, error) {
	defer s.initialising()()

	body, err := s.api.Get(ctx, pathVendors)
	if err == nil {
		var vendors []Vendor
		if vendors, err = decodeKeyed[Vendor](body, "vendor"); err == nil {
			s.vendors.set(vendors)
			return s.vendors.get(), nil
		}
	}
	s.vendors.set([]Vendor{})
	s.fail("Failed to fetch vendors", defaultFailure, err)
	return nil, err
}

func (s *Vendors) FetchVendor(ctx context.Context, id ID) (*Vendor, result.Result) {
	body, err := s.api.Get(ctx, itemPath(pathVendors, id))
	if err != nil {
		return nil, s.fail("Failed to fetch vendor", defaultFailure, err)
	}
	vendor, err := decodeOne[Vendor](body, "vendor")
	if err != nil {
		return nil, s.fail("Failed to fetch vendor", defaultFailure, err)
	}
	return vendor, result.OK()
}

// mutate runs call, announces success and refreshes the vendors. A failed refresh fails
// the whole operation.
func (s *Vendors) mutate(ctx context.Context, call func() (json.RawMessage, error), success, failure string) (*Vendor, result.Result) {
	defer s.busy()()

	body, err := call()
	if err != nil {
		return nil, s.fail(failure, defaultFailure, err)
	}
	s.succeed(success)
	if _, err := s.FetchVendors(ctx); err != nil {
		return nil, s.fail(failure, defaultFailure, err)
	}
	if body == nil {
		return nil, result.OK()
	}
	vendor, err := decodeOne[Vendor](body, "vendor")
	if err != nil {
		return nil, result.OK()
	}
	return vendor, result.OK()
}

func (s *Vendors) CreateVendor(ctx context.Context, vendor Vendor) (*Vendor, result.Result) {
	return s.mutate(ctx, func() (json.RawMessage, error) {
		return s.api.Post(ctx, pathVendors, vendor)
	}, "Vendor created successfully!", "Failed to create vendor")
}

func (s *Vendors) UpdateVendor(ctx context.Context, id ID, vendor Vendor) (*Vendor, result.Result) {
	return s.mutate(ctx, func() (json.RawMessage, error) {
		return s.api.Put(ctx, itemPath(pathVendors, id), vendor)
	}, "Vendor updated successfully!", "Failed to update vendor")
}

// VerifyVendor marks a vendor profile as verified.
func (s *Vendors) VerifyVendor(ctx context.Context, id ID) (*Vendor, result.Result) {
	return s.mutate(ctx, func() (json.RawMessage, error) {
		return s.api.Put(ctx, itemPath(pathVendors, id)+"/verify", nil)
	}, "Vendor verified successfully!", "Failed to verify vendor")
}

func (s *Vendors) DeleteVendor(ctx context.Context, id ID) result.Result {
	_, r := s.mutate(ctx, func() (json.RawMessage, error) {
		_, err := s.api.Delete(ctx, itemPath(pathVendors, id))
		return nil, err
	}, "Vendor deleted successfully!", "Failed to delete vendor")
	return r
}

func (s *Vendors) InitializeData(ctx context.Context) result.Result {
	if _, err := s.FetchVendors(ctx); err != nil {
		return s.loadFailed(err)
	}
	return result.OK()
}
