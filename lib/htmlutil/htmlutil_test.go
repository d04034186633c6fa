package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `<html><head>
<meta property="og:title" content="  Some   Creator ">
<meta name="description" content="1.2M Followers, 300 Following">
<script>var x = "not text";</script>
</head><body><div class="bio">  hello
	world  </div><div class="bio">again</div></body></html>`

func TestMetaContent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	title, ok := MetaContent(doc, "og:title")
	require.True(t, ok)
	require.Equal(t, "Some Creator", title)

	desc, ok := MetaContent(doc, "og:description", "description")
	require.True(t, ok)
	require.Equal(t, "1.2M Followers, 300 Following", desc)

	_, ok = MetaContent(doc, "twitter:card")
	require.False(t, ok)
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	require.Equal(t, "hello world again", SelectionText(doc.Find(".bio")))
	require.NotContains(t, SelectionText(doc.Find("html")), "not text")
}
