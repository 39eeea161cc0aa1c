// Package docs registers the OpenAPI document served by the swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/trips/generate": {
            "post": {
                "tags": ["trips"],
                "summary": "Generate a trip",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.TripRequest"}}],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "401": {"description": "Sign-in required"}}
            }
        },
        "/api/v1/trips/jobs/{jobID}": {
            "get": {
                "tags": ["trips"],
                "summary": "Generation job status",
                "parameters": [{"type": "string", "name": "jobID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["trips"],
                "summary": "Cancel a generation job",
                "parameters": [{"type": "string", "name": "jobID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/trips/jobs/{jobID}/save": {
            "post": {
                "tags": ["trips"],
                "summary": "Retry saving a generated trip",
                "parameters": [{"type": "string", "name": "jobID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "500": {"description": "Persistence failure"}}
            }
        },
        "/api/v1/trips": {
            "get": {"tags": ["trips"], "summary": "List the caller's trips", "responses": {"200": {"description": "OK"}, "401": {"description": "Sign-in required"}}},
            "delete": {"tags": ["trips"], "summary": "Delete all of the caller's trips", "responses": {"200": {"description": "OK"}, "401": {"description": "Sign-in required"}}}
        },
        "/api/v1/trips/{tripID}": {
            "get": {
                "tags": ["trips"],
                "summary": "Get a trip",
                "parameters": [{"type": "string", "name": "tripID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["trips"],
                "summary": "Delete a trip",
                "parameters": [{"type": "string", "name": "tripID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/trips/{tripID}/enriched": {
            "get": {
                "tags": ["trips"],
                "summary": "Trip with images and weather",
                "parameters": [{"type": "string", "name": "tripID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/trips/{tripID}/assistant": {
            "post": {
                "tags": ["trips"],
                "summary": "Ask the travel assistant about a trip",
                "parameters": [{"type": "string", "name": "tripID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "429": {"description": "Quota exhausted"}}
            }
        },
        "/api/v1/destinations/suggest": {
            "post": {"tags": ["destinations"], "summary": "Suggest destinations", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/enrichment/image": {
            "get": {"tags": ["enrichment"], "summary": "Image for a place", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/enrichment/weather": {
            "get": {"tags": ["enrichment"], "summary": "Current weather", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/enrichment/geocode": {
            "get": {"tags": ["enrichment"], "summary": "Geocode a place", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/auth/google": {
            "get": {"tags": ["auth"], "summary": "Start Google sign-in", "responses": {"307": {"description": "Redirect"}}}
        },
        "/auth/google/callback": {
            "get": {"tags": ["auth"], "summary": "Complete Google sign-in", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Sign out", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current identity", "responses": {"200": {"description": "OK"}, "401": {"description": "Sign-in required"}}}
        }
    },
    "definitions": {
        "types.TripRequest": {
            "type": "object",
            "required": ["budget", "days", "location", "travelers"],
            "properties": {
                "location": {"type": "string"},
                "days": {"type": "integer", "minimum": 1},
                "travelers": {"type": "string", "enum": ["solo", "couple", "family", "friends"]},
                "budget": {"type": "string", "enum": ["low", "medium", "luxury"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "AI Trip Planner API",
	Description:      "Generates, stores and enriches AI travel itineraries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
