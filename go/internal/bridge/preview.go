package bridge

import "strings"

// previewPolicy keeps previewed markup from loading scripts or talking to
// anything but image hosts.
const previewPolicy = "default-src 'none'; img-src * data:; style-src 'unsafe-inline'"

// PreviewDocument renders a prompt's markup styled by css, the way the
// player's stylesheet is applied when the backend renders a submission.
func PreviewDocument(html, css string) string {
	var b strings.Builder
	b.Grow(len(html) + len(css) + 48)
	b.WriteString("<html><body>")
	b.WriteString(html)
	b.WriteString("</body><style>")
	b.WriteString(css)
	b.WriteString("</style></html>")
	return b.String()
}
