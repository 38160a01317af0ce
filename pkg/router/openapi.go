package router

import (
	"fmt"

	"companion-chat/backend/pkg/validator"
)

// AddOpenAPIValidation validates requests against the schema and serves it at /api/docs/openapi.yaml
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenAPI validator: %w", err)
	}

	r.Engine.Use(v.Middleware())
	r.Engine.StaticFile("/api/docs/openapi.yaml", schemaPath)

	r.Logger.Info("OpenAPI validation enabled",
		"schema", schemaPath,
		"paths", v.Document().Paths.Len(),
	)
	return nil
}
