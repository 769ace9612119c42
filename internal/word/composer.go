package word

// Composer pairs consecutive signs and resolves each pair against a
// Dictionary. It holds at most one pending sign.
//
// A sign that completes a dictionary reading together with the pending sign
// resolves the word and clears the slot. Any other sign replaces the pending
// one, so an unmatched first half is dropped rather than retried.
//
// Composer is not safe for concurrent use.
type Composer struct {
	dict    *Dictionary
	pending string
}

// NewComposer creates a Composer over dict.
func NewComposer(dict *Dictionary) *Composer {
	return &Composer{dict: dict}
}

// Accept feeds one accepted sign and returns the resolved word, if any.
func (c *Composer) Accept(sign string) (string, bool) {
	sign = CanonicalReading(sign)
	if sign == "" {
		return "", false
	}

	if c.pending == "" {
		c.pending = sign
		return "", false
	}

	if w, ok := c.dict.Lookup(c.pending + sign); ok {
		c.pending = ""
		return w, true
	}

	c.pending = sign
	return "", false
}

// Pending returns the sign waiting for its second half.
func (c *Composer) Pending() (string, bool) {
	return c.pending, c.pending != ""
}

// Reset clears the pending sign.
func (c *Composer) Reset() {
	c.pending = ""
}
