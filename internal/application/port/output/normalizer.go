package output

type HTMLNormalizer interface {
	Clean(html string) string
}
