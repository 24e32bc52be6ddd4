package apiv1

import (
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err, "openapi.yml must load")
	require.NoError(t, doc.Validate(loader.Context), "openapi.yml must validate")
	return doc
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc := loadAPIDoc(t)

	assert.Equal(t, "The Grand Finale API", doc.Info.Title)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "/api/v1", doc.Servers[0].URL)
}

// TestOpenAPIDocumentCoversRoutes keeps the published document in sync with
// the routes RegisterHandlers actually mounts.
func TestOpenAPIDocumentCoversRoutes(t *testing.T) {
	doc := loadAPIDoc(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/ping"},
		{http.MethodGet, "/sections"},
		{http.MethodGet, "/sections/{id}/answer"},
		{http.MethodPut, "/sections/{id}/answer"},
		{http.MethodDelete, "/sections/{id}/answer"},
		{http.MethodGet, "/sections/{id}/attachments"},
		{http.MethodPost, "/sections/{id}/attachments"},
		{http.MethodGet, "/attachments/{uuid}/thumbnail"},
		{http.MethodPost, "/attachments/{uuid}/token"},
		{http.MethodDelete, "/attachments/{uuid}"},
		{http.MethodGet, "/exports/quota"},
		{http.MethodPost, "/exports"},
		{http.MethodGet, "/exports/history"},
		{http.MethodGet, "/trial"},
		{http.MethodPost, "/trial"},
		{http.MethodPost, "/billing/checkout"},
		{http.MethodPost, "/billing/portal"},
		{http.MethodGet, "/couples/invites"},
		{http.MethodPost, "/couples/invites"},
		{http.MethodPost, "/couples/invites/{id}/revoke"},
		{http.MethodPost, "/couples/accept/{token}"},
		{http.MethodGet, "/account"},
		{http.MethodDelete, "/account"},
		{http.MethodPost, "/account/password"},
		{http.MethodPost, "/account/api-key"},
		{http.MethodDelete, "/account/api-key"},
		{http.MethodGet, "/requests/name-change"},
		{http.MethodPost, "/requests/name-change"},
		{http.MethodPost, "/support"},
		{http.MethodGet, "/key/profile"},
		{http.MethodGet, "/key/sections"},
		{http.MethodGet, "/key/exports/quota"},
		{http.MethodPost, "/key/exports"},
	}

	for _, r := range routes {
		item := doc.Paths.Find(r.path)
		require.NotNilf(t, item, "path %s missing from openapi.yml", r.path)
		assert.NotNilf(t, item.GetOperation(r.method), "%s %s missing from openapi.yml", r.method, r.path)
	}
}

func TestOpenAPIErrorSchemaShape(t *testing.T) {
	doc := loadAPIDoc(t)

	errSchema := doc.Components.Schemas["Error"]
	require.NotNil(t, errSchema)
	assert.ElementsMatch(t, []string{"error", "message"}, errSchema.Value.Required)
}
