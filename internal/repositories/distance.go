package repositories

import (
	"database/sql/driver"
	"fmt"
	"math"

	"modernc.org/sqlite"
)

const sqliteDistanceFunc = "geo_distance_km"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteDistanceFunc, 4, sqliteDistanceKm); err != nil {
		panic(fmt.Sprintf("register %s: %v", sqliteDistanceFunc, err))
	}
}

// sqliteDistanceKm backs geo_distance_km(lat1, lon1, lat2, lon2). It yields
// NULL when any argument is NULL.
func sqliteDistanceKm(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	coords := make([]float64, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			return nil, nil
		case float64:
			coords[i] = v
		case int64:
			coords[i] = float64(v)
		default:
			return nil, fmt.Errorf("%s: unsupported argument %T", sqliteDistanceFunc, arg)
		}
	}
	return haversineDistanceKm(coords[0], coords[1], coords[2], coords[3]), nil
}

func haversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
