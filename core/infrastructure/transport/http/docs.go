package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pb33f/libopenapi"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// DocsHandler serves the OpenAPI document of the query API
type DocsHandler struct {
	*handlers.BaseHandler
	gateway interfaces.Gateway
	baseURL string
}

func NewDocsHandler(gateway interfaces.Gateway, baseURL string) *DocsHandler {
	return &DocsHandler{
		BaseHandler: handlers.NewBaseHandler("handler:docs"),
		gateway:     gateway,
		baseURL:     baseURL,
	}
}

// OpenAPI writes the generated document
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	specJSON, err := GenerateOpenAPISpec(h.gateway.Scenarios(), h.baseURL)
	if err != nil {
		h.WriteError(w, apperrors.NewAppError(apperrors.ErrCodeInternalError, err.Error(), err), "Failed to generate OpenAPI spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(specJSON); err != nil {
		h.Logger().Errorf("Failed to write OpenAPI spec: %v", err)
	}
}

// GenerateOpenAPISpec builds an OpenAPI 3.0 document with one execute path
// per scenario and validates it with libopenapi.
func GenerateOpenAPISpec(scenarios []domain.ScenarioSummary, baseURL string) ([]byte, error) {
	paths := map[string]any{
		"/api/query/scenarios": map[string]any{
			"get": map[string]any{
				"summary":     "List query scenarios",
				"operationId": "listScenarios",
				"responses":   okResponse("Scenario catalog", envelopeSchema(map[string]any{"type": "array", "items": map[string]any{"type": "object"}})),
			},
		},
		"/api/query/custom": map[string]any{
			"post": map[string]any{
				"summary":     "Execute a read-only SQL statement",
				"description": "Only statements starting with SELECT, WITH, SHOW, DESCRIBE, DESC or EXPLAIN are accepted.",
				"operationId": "executeCustom",
				"requestBody": jsonBody(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sql":        map[string]any{"type": "string", "example": "SELECT * FROM rdb.meter_info LIMIT 10"},
						"database":   map[string]any{"type": "string", "enum": []string{"rdb", "tsdb", "mixed", "defaultdb"}, "default": "rdb"},
						"parameters": map[string]any{"type": "array", "items": map[string]any{}},
					},
					"required": []string{"sql"},
				}),
				"responses": executeResponses(),
			},
		},
		"/api/query/history": map[string]any{
			"get": map[string]any{
				"summary":     "Recent executions, newest first",
				"operationId": "getHistory",
				"parameters": []map[string]any{
					{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer", "minimum": 0}},
				},
				"responses": okResponse("Execution history", envelopeSchema(map[string]any{"type": "array", "items": map[string]any{"type": "object"}})),
			},
		},
		"/api/health": map[string]any{
			"get": map[string]any{
				"summary":     "Health check with database status",
				"operationId": "health",
				"responses":   okResponse("Service is up", map[string]any{"type": "object"}),
			},
		},
	}

	for _, s := range scenarios {
		properties := make(map[string]any, len(s.Parameters))
		for _, p := range s.Parameters {
			properties[p] = map[string]any{"description": fmt.Sprintf("Positional value bound for '%s'", p)}
		}
		params := map[string]any{"type": "object", "properties": properties}
		if len(s.Parameters) > 0 {
			params["required"] = s.Parameters
		}

		paths["/api/query/execute/"+s.Key] = map[string]any{
			"post": map[string]any{
				"summary":     s.Name,
				"description": fmt.Sprintf("%s (database: %s)", s.Description, s.Database),
				"operationId": "executeScenario_" + s.Key,
				"tags":        []string{string(s.Database)},
				"requestBody": jsonBody(map[string]any{
					"type":       "object",
					"properties": map[string]any{"parameters": params},
				}),
				"responses": executeResponses(),
			},
		}
	}

	spec := map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "Meterscope API",
			"version":     "1.0.0",
			"description": "Smart meter query API. Each scenario has its own execute endpoint.",
		},
		"servers": []map[string]any{
			{"url": baseURL, "description": "Meterscope server"},
		},
		"paths": paths,
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spec: %w", err)
	}

	document, err := libopenapi.NewDocument(specJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create libopenapi document: %w", err)
	}
	if _, err := document.BuildV3Model(); err != nil {
		return nil, fmt.Errorf("failed to build v3 model (validation error): %w", err)
	}

	return specJSON, nil
}

func jsonBody(schema map[string]any) map[string]any {
	return map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{"schema": schema},
		},
	}
}

func envelopeSchema(data map[string]any) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success": map[string]any{"type": "boolean"},
			"data":    data,
			"meta":    map[string]any{"type": "object"},
			"message": map[string]any{"type": "string"},
			"error":   map[string]any{"type": "string"},
			"code":    map[string]any{"type": "string"},
		},
	}
}

func okResponse(description string, schema map[string]any) map[string]any {
	return map[string]any{
		"200": map[string]any{
			"description": description,
			"content": map[string]any{
				"application/json": map[string]any{"schema": schema},
			},
		},
	}
}

func executeResponses() map[string]any {
	errorSchema := map[string]any{
		"application/json": map[string]any{"schema": envelopeSchema(map[string]any{"type": "object"})},
	}
	responses := okResponse("Rows returned by the statement",
		envelopeSchema(map[string]any{"type": "array", "items": map[string]any{"type": "object"}}))
	responses["400"] = map[string]any{"description": "Missing parameter or rejected statement", "content": errorSchema}
	responses["404"] = map[string]any{"description": "Unknown scenario", "content": errorSchema}
	responses["500"] = map[string]any{"description": "Execution failed", "content": errorSchema}
	return responses
}
