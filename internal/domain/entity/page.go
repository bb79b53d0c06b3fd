package entity

// CapturedDocument is the result of a single page capture. NormalizedHTML is
// empty until a normalizer has been applied.
type CapturedDocument struct {
	URL            string
	RawHTML        string
	NormalizedHTML string
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
