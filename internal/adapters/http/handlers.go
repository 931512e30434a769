package http

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/pkg/geospatial"
)

// maxNearbyResults is the most providers a nearby search ranks; offset and
// limit page over that window.
const maxNearbyResults = 100

// queryFloat parses an optional float query parameter. ok is false when the
// parameter is present but not a number.
func queryFloat(c *fiber.Ctx, key string, def float64) (v float64, present, ok bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, false, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, false
	}
	return v, true, true
}

// NearbyProvidersHandler returns providers within radius_km of lat/lon,
// nearest first, paginated over the ranked window.
func NearbyProvidersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, latSet, latOK := queryFloat(c, "lat", 0)
		lon, lonSet, lonOK := queryFloat(c, "lon", 0)
		if !latSet || !lonSet {
			return errBadRequest(c, "lat and lon are required")
		}
		if !latOK || !lonOK || !geospatial.ValidLatLon(lat, lon) {
			return errBadRequest(c, "lat must be in [-90, 90] and lon in [-180, 180]")
		}

		radius, _, ok := queryFloat(c, "radius_km", 0)
		if !ok || radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
			return errBadRequest(c, "radius_km must be a positive number")
		}
		if deps.MaxRadiusKm > 0 && radius > deps.MaxRadiusKm {
			return errBadRequest(c, "radius_km must not exceed "+strconv.FormatFloat(deps.MaxRadiusKm, 'f', -1, 64))
		}

		onDuty := false
		if raw := c.Query("on_duty"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return errBadRequest(c, "on_duty must be true or false")
			}
			onDuty = v
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > maxNearbyResults {
			limit = 20
		}

		ranked, err := deps.Proximity.FindNearby(c.UserContext(), domain.NearbyQuery{
			Origin:     domain.GeoPoint{Lat: lat, Lon: lon},
			RadiusKm:   radius,
			Category:   c.Query("category"),
			OnDutyOnly: onDuty,
			Limit:      maxNearbyResults,
		})
		if err != nil {
			return errFromService(c, err)
		}

		total := len(ranked)
		start, end := page(total, offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: ranked[start:end], Pagination: pg})
	}
}

// GetProviderHandler returns a single provider by ID.
func GetProviderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Providers.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(p)
	}
}

// UpdateProviderLocationHandler stores a provider location synchronously.
// The body is a Location in either flat or GeoJSON shape.
func UpdateProviderLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var loc domain.Location
		if err := c.BodyParser(&loc); err != nil {
			return errBadRequest(c, "invalid location body")
		}

		update, err := deps.Providers.UpdateLocation(c.UserContext(), c.Params("id"), loc)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(update)
	}
}

// ReportProviderLocationHandler queues a location report for asynchronous
// ingestion and answers 202 Accepted.
func ReportProviderLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var loc domain.Location
		if err := c.BodyParser(&loc); err != nil {
			return errBadRequest(c, "invalid location body")
		}

		update, err := deps.Providers.ReportLocation(c.UserContext(), c.Params("id"), loc)
		if err != nil {
			return errFromService(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(update)
	}
}

// SeekerProvidersHandler ranks providers of a category for a seeker.
func SeekerProvidersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category := c.Query("category")
		if category == "" {
			return errBadRequest(c, "category query parameter is required")
		}
		limit := c.QueryInt("limit", 20)

		ranked, err := deps.Proximity.RankForSeeker(c.UserContext(), c.Params("id"), category, limit)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(ranked)
	}
}

// distanceResponse carries a distance that may be unknown.
type distanceResponse struct {
	SeekerID   string   `json:"seeker_id,omitempty"`
	ProviderID string   `json:"provider_id,omitempty"`
	DistanceKm *float64 `json:"distance_km"`
}

// SeekerProviderDistanceHandler returns the distance between a seeker and a provider.
func SeekerProviderDistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seekerID, providerID := c.Params("id"), c.Params("providerID")

		d, err := deps.Proximity.DistanceToProvider(c.UserContext(), seekerID, providerID)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(distanceResponse{SeekerID: seekerID, ProviderID: providerID, DistanceKm: d})
	}
}

type distanceRequest struct {
	Origin domain.Location `json:"origin"`
	Target domain.Location `json:"target"`
}

// DistanceHandler computes the distance between two arbitrary locations.
// Either side may be flat or GeoJSON; a side without coordinates yields null.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req distanceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		return c.JSON(distanceResponse{DistanceKm: geospatial.DistanceBetween(req.Origin, req.Target)})
	}
}
