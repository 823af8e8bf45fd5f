package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	c, err := loadCatalog()
	require.NoError(t, err)

	// Every template family ships English and Hindi.
	for name, m := range map[string]map[string]string{
		"clarify": c.Clarify, "retry": c.Retry, "failed": c.Failed, "confirm": c.Confirm,
	} {
		assert.NotEmpty(t, m["en"], name)
		assert.NotEmpty(t, m["hi"], name)
	}

	for _, f := range []string{"product_name", "quantity", "unit", "unit_price"} {
		assert.NotEmpty(t, c.Fields[f]["en"], f)
		assert.NotEmpty(t, c.Fields[f]["hi"], f)
	}
}

func TestCatalog_TemplateFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	c, err := loadCatalog()
	require.NoError(t, err)

	tmpl, native := c.template(c.Clarify, "hi")
	assert.True(t, native)
	assert.Contains(t, tmpl, "%s")

	tmpl, native = c.template(c.Clarify, "ta")
	assert.False(t, native)
	assert.Equal(t, c.Clarify["en"], tmpl)
}

func TestCatalog_FieldNames(t *testing.T) {
	t.Parallel()

	c, err := loadCatalog()
	require.NoError(t, err)

	assert.Equal(t, "quantity, price per unit", c.fieldNames([]string{"quantity", "unit_price"}, "en"))
	assert.Equal(t, "मात्रा, प्रति इकाई भाव", c.fieldNames([]string{"quantity", "unit_price"}, "hi"))

	// Unknown language falls back to English names; unknown fields pass through.
	assert.Equal(t, "quantity", c.fieldNames([]string{"quantity"}, "ta"))
	assert.Equal(t, "mystery_field", c.fieldNames([]string{"mystery_field"}, "en"))
}
