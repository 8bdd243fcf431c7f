package repositories

import (
	"fmt"
	"strconv"
	"strings"

	"greenMarketBack/internal/models"
)

// Dialect renders the store-specific parts of item queries: placeholders,
// coordinate extraction and the geospatial predicates.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	// SupportsDistance reports whether the store has a native distance function.
	SupportsDistance() bool
	LatitudeExpr(alias string) string
	LongitudeExpr(alias string) string
	LocationNotNull(alias string) string
	DistanceKmExpr(args *queryArgs, alias string, center models.GeoPoint) string
	WithinRadiusExpr(args *queryArgs, alias string, center models.GeoPoint, radiusKm float64) string
	LocationColumns() []string
	LocationValues(args *queryArgs, p *models.GeoPoint) []string
}

// NewDialect picks a dialect by database driver name.
func NewDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pgx", "postgres", "postgresql", "postgis":
		return PostGISDialect{}, nil
	case "mysql":
		return MySQLDialect{}, nil
	case "sqlite":
		return SQLiteDialect{}, nil
	case "sqlite-nogeo":
		return SQLiteDialect{DisableGeo: true}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

type queryArgs struct {
	dialect Dialect
	values  []interface{}
}

func newQueryArgs(d Dialect) *queryArgs {
	return &queryArgs{dialect: d}
}

// add appends v and returns its placeholder.
func (a *queryArgs) add(v interface{}) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

func (a *queryArgs) list(vs []string) string {
	ph := make([]string, 0, len(vs))
	for _, v := range vs {
		ph = append(ph, a.add(v))
	}
	return strings.Join(ph, ", ")
}

// PostGISDialect targets PostgreSQL with a geography(Point,4326) location column.
type PostGISDialect struct{}

func (PostGISDialect) Name() string { return "postgis" }

func (PostGISDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (PostGISDialect) SupportsDistance() bool { return true }

func (PostGISDialect) LatitudeExpr(alias string) string {
	return fmt.Sprintf("ST_Y(%s.location::geometry)", alias)
}

func (PostGISDialect) LongitudeExpr(alias string) string {
	return fmt.Sprintf("ST_X(%s.location::geometry)", alias)
}

func (PostGISDialect) LocationNotNull(alias string) string {
	return alias + ".location IS NOT NULL"
}

func (PostGISDialect) point(args *queryArgs, p models.GeoPoint) string {
	lon := args.add(p.Longitude)
	lat := args.add(p.Latitude)
	return fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s::float8, %s::float8), 4326)::geography", lon, lat)
}

func (d PostGISDialect) DistanceKmExpr(args *queryArgs, alias string, center models.GeoPoint) string {
	return fmt.Sprintf("ST_Distance(%s.location, %s) / 1000.0", alias, d.point(args, center))
}

func (d PostGISDialect) WithinRadiusExpr(args *queryArgs, alias string, center models.GeoPoint, radiusKm float64) string {
	pt := d.point(args, center)
	return fmt.Sprintf("ST_DWithin(%s.location, %s, %s::float8 * 1000.0)", alias, pt, args.add(radiusKm))
}

func (PostGISDialect) LocationColumns() []string { return []string{"location"} }

func (d PostGISDialect) LocationValues(args *queryArgs, p *models.GeoPoint) []string {
	if p == nil {
		return []string{"NULL"}
	}
	return []string{d.point(args, *p)}
}

// MySQLDialect targets MySQL 8 with a POINT SRID 4326 location column.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) Placeholder(int) string { return "?" }

func (MySQLDialect) SupportsDistance() bool { return true }

func (MySQLDialect) LatitudeExpr(alias string) string {
	return fmt.Sprintf("ST_Latitude(%s.location)", alias)
}

func (MySQLDialect) LongitudeExpr(alias string) string {
	return fmt.Sprintf("ST_Longitude(%s.location)", alias)
}

func (MySQLDialect) LocationNotNull(alias string) string {
	return alias + ".location IS NOT NULL"
}

func (MySQLDialect) point(args *queryArgs, p models.GeoPoint) string {
	wkt := fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	return fmt.Sprintf("ST_GeomFromText(%s, 4326, 'axis-order=long-lat')", args.add(wkt))
}

func (d MySQLDialect) DistanceKmExpr(args *queryArgs, alias string, center models.GeoPoint) string {
	return fmt.Sprintf("ST_Distance_Sphere(%s.location, %s) / 1000", alias, d.point(args, center))
}

func (d MySQLDialect) WithinRadiusExpr(args *queryArgs, alias string, center models.GeoPoint, radiusKm float64) string {
	pt := d.point(args, center)
	return fmt.Sprintf("ST_Distance_Sphere(%s.location, %s) <= %s * 1000", alias, pt, args.add(radiusKm))
}

func (MySQLDialect) LocationColumns() []string { return []string{"location"} }

func (d MySQLDialect) LocationValues(args *queryArgs, p *models.GeoPoint) []string {
	if p == nil {
		return []string{"NULL"}
	}
	return []string{d.point(args, *p)}
}

// SQLiteDialect stores coordinates in plain latitude/longitude columns. The
// distance function is geo_distance_km, registered by this package; with
// DisableGeo the store behaves as one without geospatial support.
type SQLiteDialect struct {
	DisableGeo bool
}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (d SQLiteDialect) SupportsDistance() bool { return !d.DisableGeo }

func (SQLiteDialect) LatitudeExpr(alias string) string { return alias + ".latitude" }

func (SQLiteDialect) LongitudeExpr(alias string) string { return alias + ".longitude" }

func (SQLiteDialect) LocationNotNull(alias string) string {
	return fmt.Sprintf("%s.latitude IS NOT NULL AND %s.longitude IS NOT NULL", alias, alias)
}

func (SQLiteDialect) DistanceKmExpr(args *queryArgs, alias string, center models.GeoPoint) string {
	return fmt.Sprintf("%s(%s.latitude, %s.longitude, %s, %s)",
		sqliteDistanceFunc, alias, alias, args.add(center.Latitude), args.add(center.Longitude))
}

func (d SQLiteDialect) WithinRadiusExpr(args *queryArgs, alias string, center models.GeoPoint, radiusKm float64) string {
	return fmt.Sprintf("%s <= %s", d.DistanceKmExpr(args, alias, center), args.add(radiusKm))
}

func (SQLiteDialect) LocationColumns() []string { return []string{"latitude", "longitude"} }

func (SQLiteDialect) LocationValues(args *queryArgs, p *models.GeoPoint) []string {
	if p == nil {
		return []string{"NULL", "NULL"}
	}
	return []string{args.add(p.Latitude), args.add(p.Longitude)}
}
