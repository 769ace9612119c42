// Package sign maps classifier output onto the finger-spelling alphabet.
package sign

// ClassCount is the number of signs the classifier distinguishes.
const ClassCount = 40

// Alphabet lists the signs in classifier output order.
var Alphabet = [ClassCount]string{
	"あ", "い", "う", "え", "お",
	"か", "き", "く", "け", "こ",
	"さ", "し", "す", "せ", "そ",
	"た", "ち", "つ", "て", "と",
	"な", "に", "ぬ", "ね",
	"は", "ひ", "ふ", "へ", "ほ",
	"ま", "み", "む", "め",
	"や", "ゆ", "よ",
	"ら", "る", "れ", "ろ",
}

// Index returns the classifier index of s, or -1 when s is not a sign.
func Index(s string) int {
	for i, a := range Alphabet {
		if a == s {
			return i
		}
	}
	return -1
}
