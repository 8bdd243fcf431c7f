package repositories

import (
	"fmt"
	"math"
	"strings"

	"greenMarketBack/internal/models"
)

// ItemFilter is one typed predicate over the items table. The set of
// implementations is closed: StatusEquals, LocationNotNull, WithinRadius,
// MaterialCategory, OrganizationIs and IDIn.
type ItemFilter interface {
	apply(b *filterBuilder) error
}

type StatusEquals struct {
	Status models.ItemStatus
}

type LocationNotNull struct{}

type WithinRadius struct {
	Center   models.GeoPoint
	RadiusKm float64
}

type MaterialCategory struct {
	Category string
}

type OrganizationIs struct {
	ID string
}

type IDIn struct {
	IDs []string
}

func (f StatusEquals) apply(b *filterBuilder) error {
	if !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrQueryError, f.Status)
	}
	b.where = append(b.where, fmt.Sprintf("%s.status = %s", b.alias, b.args.add(string(f.Status))))
	return nil
}

func (LocationNotNull) apply(b *filterBuilder) error {
	b.where = append(b.where, b.args.dialect.LocationNotNull(b.alias))
	return nil
}

func (f WithinRadius) apply(b *filterBuilder) error {
	if err := validateEnvelope(f.Center, f.RadiusKm); err != nil {
		return err
	}
	b.where = append(b.where, b.args.dialect.WithinRadiusExpr(b.args, b.alias, f.Center, f.RadiusKm))
	return nil
}

func (f MaterialCategory) apply(b *filterBuilder) error {
	b.where = append(b.where, fmt.Sprintf("m.category = %s", b.args.add(f.Category)))
	return nil
}

func (f OrganizationIs) apply(b *filterBuilder) error {
	b.where = append(b.where, fmt.Sprintf("%s.organization_id = %s", b.alias, b.args.add(f.ID)))
	return nil
}

func (f IDIn) apply(b *filterBuilder) error {
	if len(f.IDs) == 0 {
		return fmt.Errorf("%w: empty id list", models.ErrQueryError)
	}
	b.where = append(b.where, fmt.Sprintf("%s.id IN (%s)", b.alias, b.args.list(f.IDs)))
	return nil
}

type filterBuilder struct {
	args  *queryArgs
	alias string
	where []string
}

func newFilterBuilder(args *queryArgs, alias string) *filterBuilder {
	return &filterBuilder{args: args, alias: alias}
}

// build renders filters as a WHERE clause, or "" when there are none.
func (b *filterBuilder) build(filters ...ItemFilter) (string, error) {
	for _, f := range filters {
		if err := f.apply(b); err != nil {
			return "", err
		}
	}
	if len(b.where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.where, " AND "), nil
}

// ItemFilters are the optional narrowing options of the active-item listing.
type ItemFilters struct {
	MaterialCategory string
	OrganizationID   string
	// Limit of zero means no limit.
	Limit  int
	Offset int
}

func (f ItemFilters) toFilters() []ItemFilter {
	filters := []ItemFilter{
		StatusEquals{Status: models.ItemStatusActive},
		LocationNotNull{},
	}
	if c := strings.TrimSpace(f.MaterialCategory); c != "" {
		filters = append(filters, MaterialCategory{Category: c})
	}
	if id := strings.TrimSpace(f.OrganizationID); id != "" {
		filters = append(filters, OrganizationIs{ID: id})
	}
	return filters
}

func validateEnvelope(center models.GeoPoint, radiusKm float64) error {
	if !center.InRange() {
		return fmt.Errorf("%w: center %v,%v out of range", models.ErrQueryError, center.Latitude, center.Longitude)
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return fmt.Errorf("%w: invalid radius %v", models.ErrQueryError, radiusKm)
	}
	return nil
}
