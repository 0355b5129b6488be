package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

func TestSwaggerDocRegistered(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Info     struct{ Title string }     `json:"info"`
		Paths    map[string]json.RawMessage `json:"paths"`
		Security map[string]json.RawMessage `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, "Purchase Order Lifecycle API", doc.Info.Title)
	assert.Contains(t, doc.Security, "BearerAuth")
	for _, path := range []string{
		"/purchasing/orders",
		"/purchasing/orders/{id}",
		"/purchasing/orders/{id}/serial-receive",
		"/purchasing/orders/{id}/payments",
		"/purchasing/orders/{id}/returns",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}
