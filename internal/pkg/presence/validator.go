package presence

import (
	"math"
	"net/netip"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/config"
)

// Validator answers the single question "is this punch physically eligible".
// It owns no state beyond the configured policy and never mutates anything.
type Validator struct {
	networks []netip.Prefix
	offices  []config.Office
	radius   float64
}

func NewValidator(cfg config.PresenceConfig) *Validator {
	return &Validator{
		networks: cfg.AllowedNetworks,
		offices:  cfg.Offices,
		radius:   cfg.RadiusMeters,
	}
}

// Geo is an optional caller position.
type Geo struct {
	Latitude  float64
	Longitude float64
}

// Eligible reports whether a punch from the given source address (and
// optional position) passes the workplace policy. With no allowlist and no
// offices configured, every punch is eligible.
func (v *Validator) Eligible(sourceAddress string, geo *Geo) bool {
	if len(v.networks) > 0 {
		addr, err := netip.ParseAddr(sourceAddress)
		if err != nil {
			return false
		}
		allowed := false
		for _, prefix := range v.networks {
			if prefix.Contains(addr) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if len(v.offices) > 0 && geo != nil {
		for _, office := range v.offices {
			distance := haversineDistance(geo.Latitude, geo.Longitude, office.Latitude, office.Longitude)
			if distance <= v.radius {
				return true
			}
		}
		return false
	}

	return true
}

// haversineDistance returns the distance between two coordinates in meters.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000 // meters

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
