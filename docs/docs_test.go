package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

func TestSwaggerDocument(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "Finance Engine API", doc.Info.Title)

	for path, method := range map[string]string{
		"/finance/documents":                          "post",
		"/finance/documents/{id}":                     "delete",
		"/finance/documents/{id}/settle":              "post",
		"/finance/installments/confirm":               "post",
		"/finance/transactions/{id}/cancel-documents": "post",
		"/finance/overdue-sweep":                      "post",
		"/trade/costing/allocate":                     "post",
	} {
		assert.Contains(t, doc.Paths[path], method, path)
	}
}
