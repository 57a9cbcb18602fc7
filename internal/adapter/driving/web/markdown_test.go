package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_BasicFormatting(t *testing.T) {
	out := RenderMarkdown("### @alice\n\nPlease clean up `feature/old`.")

	assert.Contains(t, out, "<h3>@alice</h3>")
	assert.Contains(t, out, "<code>feature/old</code>")
}

func TestRenderMarkdown_GFMTable(t *testing.T) {
	src := "| Branch | Category |\n| --- | --- |\n| `old/one` | stale |\n"

	out := RenderMarkdown(src)

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td><code>old/one</code></td>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	out := RenderMarkdown("hello <script>alert('xss')</script> world")

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}
