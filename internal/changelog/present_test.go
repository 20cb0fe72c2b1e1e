package changelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresentWrapsTextInBanners(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Present(&buf, "### Added\n- Did X", PresentOptions{}))

	want := BannerStart + "\n### Added\n- Did X\n" + BannerEnd + "\n"
	require.Equal(t, want, buf.String())
}

func TestPresentKeepsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Present(&buf, "line\n", PresentOptions{}))
	require.Equal(t, BannerStart+"\nline\n"+BannerEnd+"\n", buf.String())
}

func TestPresentRendersMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := Present(&buf, "### Added\n\n- Did X", PresentOptions{Render: true, Style: "notty", WordWrap: 80})
	require.NoError(t, err)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, BannerStart+"\n"))
	require.True(t, strings.HasSuffix(out, BannerEnd+"\n"))
	require.Contains(t, out, "Added")
	require.Contains(t, out, "Did X")
}
