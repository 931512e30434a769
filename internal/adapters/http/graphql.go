package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	providerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RankedProvider",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"on_duty":     &graphql.Field{Type: graphql.Boolean},
			"rating":      &graphql.Field{Type: graphql.Float},
			"location":    &graphql.Field{Type: geoPointType, Description: "Resolved point; null when unknown"},
			"distance_km": &graphql.Field{Type: graphql.Float, Description: "Null when either side has no location"},
		},
	})

	geoJSONInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoJSONPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"type":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"coordinates": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
		},
	})

	locationInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LocationInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"latitude":    &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"longitude":   &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"coordinates": &graphql.InputObjectFieldConfig{Type: geoJSONInput},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"providersNearby": &graphql.Field{
				Type:        graphql.NewList(providerType),
				Description: "Providers within radius_km of a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"category":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"on_duty":   &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ranked, err := deps.Proximity.FindNearby(p.Context, domain.NearbyQuery{
						Origin:     domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						RadiusKm:   p.Args["radius_km"].(float64),
						Category:   p.Args["category"].(string),
						OnDutyOnly: p.Args["on_duty"].(bool),
						Limit:      p.Args["limit"].(int),
					})
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(ranked))
					for _, rp := range ranked {
						result = append(result, rankedProviderMap(rp))
					}
					return result, nil
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Distance in km between two locations, null when either is unknown",
				Args: graphql.FieldConfigArgument{
					"origin": &graphql.ArgumentConfig{Type: graphql.NewNonNull(locationInput)},
					"target": &graphql.ArgumentConfig{Type: graphql.NewNonNull(locationInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := locationFromArg(p.Args["origin"])
					target := locationFromArg(p.Args["target"])
					if d := geospatial.DistanceBetween(origin, target); d != nil {
						return *d, nil
					}
					return nil, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func rankedProviderMap(rp domain.RankedProvider) map[string]interface{} {
	m := map[string]interface{}{
		"id":       rp.ID,
		"name":     rp.Name,
		"category": rp.Category,
		"on_duty":  rp.OnDuty,
		"rating":   rp.Rating,
	}
	if pt := geospatial.ExtractCoordinates(rp.Location); pt != nil {
		m["location"] = map[string]interface{}{"lat": pt.Lat, "lon": pt.Lon}
	}
	if rp.DistanceKm != nil {
		m["distance_km"] = *rp.DistanceKm
	}
	return m
}

// locationFromArg converts a LocationInput argument into a domain.Location.
func locationFromArg(arg interface{}) domain.Location {
	var loc domain.Location
	m, ok := arg.(map[string]interface{})
	if !ok {
		return loc
	}
	if v, ok := m["latitude"].(float64); ok {
		loc.Latitude = &v
	}
	if v, ok := m["longitude"].(float64); ok {
		loc.Longitude = &v
	}
	if gj, ok := m["coordinates"].(map[string]interface{}); ok {
		pt := &domain.GeoJSONPoint{}
		pt.Type, _ = gj["type"].(string)
		if coords, ok := gj["coordinates"].([]interface{}); ok {
			for _, c := range coords {
				if f, ok := c.(float64); ok {
					pt.Coordinates = append(pt.Coordinates, f)
				}
			}
		}
		loc.Coordinates = pt
	}
	return loc
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
