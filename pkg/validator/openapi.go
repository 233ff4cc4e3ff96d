package validator

import (
	"context"
	"fmt"
	"os"
	"sync"

	apperrors "solo-persona/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document. Requests
// for routes the document does not describe pass through untouched.
type OpenAPIValidator struct {
	doc        *openapi3.T
	router     routers.Router
	schemaPath string
	mutex      sync.RWMutex
}

// NewOpenAPIValidator builds a validator from an in-memory document.
func NewOpenAPIValidator(data []byte) (*OpenAPIValidator, error) {
	doc, router, err := load(func(l *openapi3.Loader) (*openapi3.T, error) {
		return l.LoadFromData(data)
	})
	if err != nil {
		return nil, err
	}
	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// NewOpenAPIValidatorFromFile builds a validator from a document on disk. The
// file can be reloaded later with ReloadSchema.
func NewOpenAPIValidatorFromFile(schemaPath string) (*OpenAPIValidator, error) {
	doc, router, err := loadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	return &OpenAPIValidator{doc: doc, router: router, schemaPath: schemaPath}, nil
}

// loadFile reads the bytes itself; Loader.LoadFromFile caches documents by URI
// for the life of the process, so a reload through it returns the old schema.
func loadFile(path string) (*openapi3.T, routers.Router, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", path, err)
	}
	return load(func(l *openapi3.Loader) (*openapi3.T, error) {
		return l.LoadFromData(data)
	})
}

func load(read func(*openapi3.Loader) (*openapi3.T, error)) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := read(loader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI schema: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}
	return doc, router, nil
}

// ReloadSchema reloads the OpenAPI schema from disk
func (v *OpenAPIValidator) ReloadSchema() error {
	if v.schemaPath == "" {
		return fmt.Errorf("validator was not loaded from a file")
	}
	doc, router, err := loadFile(v.schemaPath)
	if err != nil {
		return err
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.doc = doc
	v.router = router
	return nil
}

// Document returns the loaded OpenAPI document.
func (v *OpenAPIValidator) Document() *openapi3.T {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.doc
}

// Middleware returns a Gin middleware that rejects requests violating the document
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v.mutex.RLock()
		router := v.router
		v.mutex.RUnlock()

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
			c.Abort()
			return
		}

		c.Next()
	}
}
