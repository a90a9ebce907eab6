package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/seminar-digest/internal/model"
)

const markedTemplate = `<html><body>
<header>Weekly seminars</header>
<!-- First Seminar -->
        <section class="content-section box-sizing-border">sample</section>
<!-- End of the first seminar -->
<footer>bye</footer>
</body></html>`

func sampleEvents() []model.Event {
	return []model.Event{
		{
			Title:        "量子计算前沿",
			SpeakerName:  "王明",
			SpeakerTitle: "北京大学教授",
			TimeBegin:    "2024年05月20日 14时00分",
			Position:     "FIT 1-315",
		},
		{
			Title:     "Storage <engines> & co",
			TimeBegin: "2024年05月20日 09时30分",
			Position:  "10-103",
		},
	}
}

func TestRender_TwoEvents(t *testing.T) {
	out, err := New().Render(sampleEvents(), markedTemplate)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<html><body>\n<header>Weekly seminars</header>\n<!-- Events -->\n"))
	assert.True(t, strings.HasSuffix(out, "\n<footer>bye</footer>\n</body></html>"))
	assert.NotContains(t, out, DefaultStartMarker)
	assert.NotContains(t, out, DefaultEndMarker)
	assert.NotContains(t, out, "sample")

	region := out[strings.Index(out, DefaultSequenceMarker):strings.Index(out, "<footer>")]
	assert.Equal(t, 2, strings.Count(region, "<!-- Event -->"))
	assert.Equal(t, 2, strings.Count(region, "<!-- Divider -->"))

	// Input order is preserved.
	first := strings.Index(region, "量子计算前沿")
	second := strings.Index(region, "Storage")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)

	assert.Contains(t, region, "报告人：王明 北京大学教授")
	assert.Contains(t, region, "地点: FIT 1-315")
	assert.Contains(t, region, "Storage &lt;engines&gt; &amp; co")
}

func TestRender_NoEvents(t *testing.T) {
	out, err := New().Render(nil, markedTemplate)
	require.NoError(t, err)

	assert.Equal(t, "<html><body>\n<header>Weekly seminars</header>\n<!-- Events -->\n<footer>bye</footer>\n</body></html>", out)
}

func TestFragments_KeepsCommentsAndEscapes(t *testing.T) {
	got, err := New().Fragments([]model.Event{
		{Title: `<script>"x"</script>`, SpeakerName: "O'Neil", Position: "A & B"},
		{Title: "y"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(got, "<!-- Event -->"))
	assert.Equal(t, 2, strings.Count(got, "<!-- Divider -->"))
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;&#34;x&#34;&lt;/script&gt;")
	assert.Contains(t, got, "报告人：O&#39;Neil ")
	assert.Contains(t, got, "地点: A &amp; B")
}

func TestFragments_Empty(t *testing.T) {
	got, err := New().Fragments(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRender_UnknownTitle(t *testing.T) {
	out, err := New().Render([]model.Event{{TimeBegin: "t"}}, markedTemplate)
	require.NoError(t, err)
	assert.Contains(t, out, "> "+UnknownTitle+" <")
}

func TestRender_MissingMarkers(t *testing.T) {
	tests := map[string]string{
		"no markers":   "<html></html>",
		"start only":   "<!-- First Seminar --> x",
		"end only":     "<!-- End of the first seminar --> x",
		"end precedes": "<!-- End of the first seminar --> x <!-- First Seminar -->",
	}
	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New().Render(sampleEvents(), tmpl)
			assert.ErrorIs(t, err, ErrMarkersNotFound)

			var te *TemplateError
			assert.ErrorAs(t, err, &te)
		})
	}
}

func TestRender_CustomMarkers(t *testing.T) {
	r := Renderer{StartMarker: "<!--BEGIN-->", EndMarker: "<!--END-->", SequenceMarker: "<!--LIST-->"}

	out, err := r.Render(nil, "a<!--BEGIN-->old<!--END-->b")
	require.NoError(t, err)
	assert.Equal(t, "a<!--LIST-->b", out)

	out, err = r.Render([]model.Event{{Title: "x"}}, "a<!--BEGIN-->old<!--END-->b")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "a<!--LIST-->\n        <!-- Event -->\n"))
}

func TestRender_LegacyFallback(t *testing.T) {
	tmpl := "<body>\n" + LegacySampleBlock + "\n</body>"

	_, err := New().Render(sampleEvents(), tmpl)
	assert.ErrorIs(t, err, ErrMarkersNotFound)

	r := New()
	r.LegacyFallback = true
	out, err := r.Render(sampleEvents(), tmpl)
	require.NoError(t, err)

	assert.NotContains(t, out, "{event}")
	assert.Equal(t, 2, strings.Count(out, "<!-- Event -->"))
	assert.True(t, strings.HasPrefix(out, "<body>\n        <!-- Event -->"))
	assert.True(t, strings.HasSuffix(out, "\n</body>"))
}

func TestRender_LegacyFallbackWithoutBlock(t *testing.T) {
	r := New()
	r.LegacyFallback = true
	_, err := r.Render(sampleEvents(), "<body></body>")
	assert.ErrorIs(t, err, ErrMarkersNotFound)
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "tmpl.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte(markedTemplate), 0o644))

	outPath := filepath.Join(dir, "out", "nested", "2024-05-20.html")
	require.NoError(t, New().RenderFile(sampleEvents(), tmplPath, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "量子计算前沿")
}

func TestRenderFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing template", func(t *testing.T) {
		err := New().RenderFile(nil, filepath.Join(dir, "nope.html"), filepath.Join(dir, "out.html"))
		var te *TemplateError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "read", te.Op)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no markers", func(t *testing.T) {
		tmplPath := filepath.Join(dir, "plain.html")
		require.NoError(t, os.WriteFile(tmplPath, []byte("<html></html>"), 0o644))
		outPath := filepath.Join(dir, "plain-out.html")

		err := New().RenderFile(nil, tmplPath, outPath)
		var te *TemplateError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, tmplPath, te.Path)
		assert.ErrorIs(t, err, ErrMarkersNotFound)

		_, statErr := os.Stat(outPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unwritable output", func(t *testing.T) {
		tmplPath := filepath.Join(dir, "ok.html")
		require.NoError(t, os.WriteFile(tmplPath, []byte(markedTemplate), 0o644))

		// A regular file where a directory is needed.
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		err := New().RenderFile(nil, tmplPath, filepath.Join(blocker, "out.html"))
		var te *TemplateError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "write", te.Op)
	})
}
