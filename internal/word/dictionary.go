// Package word combines accepted signs into dictionary words.
package word

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// KeyLength is the number of signs in a dictionary key.
const KeyLength = 2

// Entry is a single reading → word mapping.
type Entry struct {
	Reading string `json:"reading"`
	Word    string `json:"word"`
}

// DefaultEntries returns the built-in dictionary.
func DefaultEntries() []Entry {
	return []Entry{
		{Reading: "さき", Word: "先"},
		{Reading: "かき", Word: "柿"},
		{Reading: "かさ", Word: "傘"},
		{Reading: "さけ", Word: "酒"},
		{Reading: "あさ", Word: "朝"},
		{Reading: "くさ", Word: "草"},
		{Reading: "くせ", Word: "癖"},
		{Reading: "さお", Word: "竿"},
	}
}

// Dictionary is an immutable reading → word lookup table.
type Dictionary struct {
	entries map[string]string
}

// CanonicalReading trims and NFC-normalizes a reading so precomposed and
// combining-mark spellings of the same kana compare equal.
func CanonicalReading(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ValidateEntry checks that an entry has a KeyLength-character reading and a word.
func ValidateEntry(e Entry) error {
	reading := CanonicalReading(e.Reading)
	if n := utf8.RuneCountInString(reading); n != KeyLength {
		return fmt.Errorf("reading %q has %d characters, expected %d", e.Reading, n, KeyLength)
	}
	if strings.TrimSpace(e.Word) == "" {
		return fmt.Errorf("reading %q has no word", e.Reading)
	}
	return nil
}

// NewDictionary builds a Dictionary from entries. Duplicate readings are
// rejected so a lookup never depends on input order.
func NewDictionary(entries []Entry) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string]string, len(entries))}
	for _, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return nil, err
		}
		reading := CanonicalReading(e.Reading)
		if _, exists := d.entries[reading]; exists {
			return nil, fmt.Errorf("duplicate reading %q", reading)
		}
		d.entries[reading] = strings.TrimSpace(e.Word)
	}
	return d, nil
}

// Lookup returns the word for reading.
func (d *Dictionary) Lookup(reading string) (string, bool) {
	if d == nil {
		return "", false
	}
	w, ok := d.entries[CanonicalReading(reading)]
	return w, ok
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of the dictionary sorted by reading.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, 0, len(d.entries))
	for r, w := range d.entries {
		out = append(out, Entry{Reading: r, Word: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reading < out[j].Reading })
	return out
}
