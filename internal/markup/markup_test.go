package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func TestAppendAttachments(t *testing.T) {
	body := AppendAttachments("  Leak under sink  ", []Media{
		{Kind: domain.AttachmentImage, URL: "https://files.example/a.jpg"},
		{Kind: domain.AttachmentInvoice, URL: "https://files.example/r.pdf"},
		{Kind: domain.AttachmentVideo, URL: "https://files.example/b.mp4"},
	})

	assert.Equal(t, "Leak under sink\n\n![Image](https://files.example/a.jpg)\n[Video](https://files.example/b.mp4)\n", body)
}

func TestAppendAttachments_NoMedia(t *testing.T) {
	assert.Equal(t, "note", AppendAttachments(" note ", nil))
}

func TestRenderer_ExtractRoundTrip(t *testing.T) {
	media := []Media{
		{Kind: domain.AttachmentImage, URL: "https://files.example/a.jpg"},
		{Kind: domain.AttachmentVideo, URL: "https://files.example/b.mp4"},
	}
	body := AppendAttachments("See [manual](https://docs.example)", media)

	got := NewRenderer().Extract(body)

	assert.Equal(t, media, got)
}

func TestRenderer_ToHTMLSanitizes(t *testing.T) {
	out, err := NewRenderer().ToHTML("hello <script>alert(1)</script>\n\n![Image](https://files.example/a.jpg)")
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `src="https://files.example/a.jpg"`)
}
