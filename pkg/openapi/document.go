package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/alpaka/formengine/pkg/schema"
)

// Component names registered by Spec.
const (
	PayloadComponent = "ConfigChangesPayload"
	ResultComponent  = "ValidationResult"
)

// Spec describes the stateless validation endpoint of the form service with
// the payload schema of page registered as a component.
func Spec(page schema.Page, version string) *openapi3.T {
	if version == "" {
		version = "0.0.0"
	}
	title := page.PageTitle
	if title == "" {
		title = "Form"
	}

	payloadRef := openapi3.NewSchemaRef("#/components/schemas/"+PayloadComponent, PayloadSchema(page))
	resultRef := openapi3.NewSchemaRef("#/components/schemas/"+ResultComponent, resultSchema())

	validate := openapi3.NewOperation()
	validate.OperationID = "validateDocument"
	validate.Summary = "Validate a " + title + " document"
	validate.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(
			openapi3.NewObjectSchema().
				WithPropertyRef("document", payloadRef).
				WithRequired([]string{"document"}),
		),
	}
	validate.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Validation result").WithJSONSchemaRef(resultRef),
		}),
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Malformed request body"),
		}),
	)

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title + " API",
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				PayloadComponent: openapi3.NewSchemaRef("", PayloadSchema(page)),
				ResultComponent:  openapi3.NewSchemaRef("", resultSchema()),
			},
		},
	}
	doc.AddOperation("/v1/validate", http.MethodPost, validate)
	return doc
}

func resultSchema() *openapi3.Schema {
	errorsSchema := openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("valid", openapi3.NewBoolSchema()).
		WithProperty("errors", errorsSchema).
		WithRequired([]string{"valid", "errors"})
}

// ValidateSpec checks that doc is a well-formed OpenAPI document.
func ValidateSpec(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return fmt.Errorf("openapi: invalid spec: %w", err)
	}
	return nil
}
