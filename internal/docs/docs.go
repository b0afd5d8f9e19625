// Package docs holds the static API documentation served on GET /docs.
package docs

import (
	_ "embed"
)

//go:embed index.html
var page []byte

//go:embed openapi.json
var spec []byte

// Page returns the documentation HTML. The OpenAPI document is embedded in it verbatim.
func Page() []byte {
	return page
}

// OpenAPI returns the raw OpenAPI document.
func OpenAPI() []byte {
	return spec
}
