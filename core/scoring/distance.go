package scoring

import (
	"math"
	"sort"

	"github.com/radarhk/radar/model"
)

const (
	earthRadiusKm = 6371.0

	// NearbyRadiusKm is the great-circle distance under which a place
	// qualifies as nearby.
	NearbyRadiusKm = 2.0
)

// Haversine computes the great-circle distance in kilometers between two
// WGS84 coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lng1Rad := lng1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lng2Rad := lng2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLng := lng2Rad - lng1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKm * c
}

// PlaceDistance pairs a saved place with its distance from the query point
type PlaceDistance struct {
	Place      *model.SavedPlace `json:"place"`
	DistanceKm float64           `json:"distance_km"`
}

// Nearby returns the places within NearbyRadiusKm of the given coordinate,
// sorted ascending by distance. An empty saved set yields an empty result.
func Nearby(lat, lng float64, places []*model.SavedPlace) []PlaceDistance {
	nearby := make([]PlaceDistance, 0)
	for _, place := range places {
		d := Haversine(lat, lng, place.Lat, place.Lng)
		if d < NearbyRadiusKm {
			nearby = append(nearby, PlaceDistance{Place: place, DistanceKm: d})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby
}
