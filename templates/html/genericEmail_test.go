package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderGenericEmailEscapesBody(t *testing.T) {
	out := RenderGenericEmail("Hello <Admin>", "line one\nline <two>")

	assert.Contains(t, out, "Hello &lt;Admin&gt;")
	assert.Contains(t, out, "line one<br>line &lt;two&gt;")
	assert.NotContains(t, out, "<two>")
}
