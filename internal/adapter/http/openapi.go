package http

import "net/http"

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(openAPIDocument)) //nolint:errcheck // static document
}

// openAPIDocument is maintained by hand; keep it in sync with the handlers
// in api.go.
const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Absolute Humidity Calculator",
    "description": "Computes absolute humidity (g/m³) from air temperature and relative humidity.",
    "version": "1.0.0"
  },
  "paths": {
    "/api/calculate": {
      "post": {
        "summary": "Compute absolute humidity",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": { "$ref": "#/components/schemas/CalculateRequest" }
            }
          }
        },
        "responses": {
          "200": {
            "description": "Computed result",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/CalculateResponse" }
              }
            }
          },
          "400": {
            "description": "Unreadable request body",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/Error" }
              }
            }
          },
          "422": {
            "description": "Invalid input",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/Error" }
              }
            }
          }
        }
      }
    },
    "/api/health": {
      "get": {
        "summary": "Liveness probe",
        "responses": {
          "200": {
            "description": "Service is alive",
            "content": {
              "application/json": {
                "schema": {
                  "type": "object",
                  "properties": { "status": { "type": "string", "example": "healthy" } }
                }
              }
            }
          }
        }
      }
    },
    "/api/info": {
      "get": {
        "summary": "Service metadata",
        "responses": {
          "200": {
            "description": "Formulas, constants, limits, and endpoints",
            "content": { "application/json": { "schema": { "type": "object" } } }
          }
        }
      }
    },
    "/api/readings/latest": {
      "get": {
        "summary": "Latest enriched reading per station",
        "responses": {
          "200": {
            "description": "Newest reading for each station, newest station first",
            "content": {
              "application/json": {
                "schema": {
                  "type": "object",
                  "properties": {
                    "readings": {
                      "type": "array",
                      "items": { "$ref": "#/components/schemas/EnrichedReading" }
                    },
                    "count": { "type": "integer" }
                  }
                }
              }
            }
          }
        }
      }
    }
  },
  "components": {
    "schemas": {
      "CalculateRequest": {
        "type": "object",
        "required": ["temperature", "humidity"],
        "properties": {
          "temperature": {
            "type": "number",
            "description": "Air temperature in °C, above -273.15",
            "example": 25.5
          },
          "humidity": {
            "type": "number",
            "description": "Relative humidity in percent, 0 to 100",
            "example": 60
          }
        }
      },
      "CalculateResponse": {
        "type": "object",
        "properties": {
          "absolute_humidity": { "type": "number", "example": 14.21 },
          "temperature": { "type": "number", "example": 25.5 },
          "humidity": { "type": "number", "example": 60 },
          "unit": { "type": "string", "example": "g/m³" }
        }
      },
      "EnrichedReading": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "example": "st-001-1f0c9adf55386a21" },
          "station_id": { "type": "string", "example": "st-001" },
          "temperature_c": { "type": "number", "example": 25.5 },
          "humidity_pct": { "type": "number", "example": 60 },
          "absolute_humidity_gm3": { "type": "number", "example": 14.21 },
          "unit": { "type": "string", "example": "g/m³" },
          "strategy": { "type": "string", "example": "magnus" },
          "observed_at": { "type": "string", "format": "date-time" },
          "time_bucket": { "type": "string", "format": "date-time" },
          "processed_at": { "type": "string", "format": "date-time" }
        }
      },
      "Error": {
        "type": "object",
        "properties": {
          "error": { "type": "string", "example": "relative humidity out of range: 130 (want 0..100)" }
        }
      }
    }
  }
}`
