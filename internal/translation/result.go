package translation

// Result classifies the outcome of a text lookup.
type Result int

const (
	ResultInvalid Result = iota
	// ResultOK means Text holds a translation.
	ResultOK
	// ResultNotFound means no rule matched.
	ResultNotFound
	// ResultTranslated means the input is itself a translation output and
	// was not looked up again.
	ResultTranslated
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNotFound:
		return "not_found"
	case ResultTranslated:
		return "translated"
	default:
		return "invalid"
	}
}

// TextTranslation is the answer to a text lookup.
type TextTranslation struct {
	Text   string
	Result Result
}

// Found reports whether Text is a fresh translation.
func (t TextTranslation) Found() bool {
	return t.Result == ResultOK
}
