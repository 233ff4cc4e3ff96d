// Package api holds the published HTTP contract.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 document for the HTTP surface.
//
//go:embed openapi.yaml
var OpenAPI []byte
