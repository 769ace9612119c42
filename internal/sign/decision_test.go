package sign

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// probs builds a ClassCount vector with the given index/probability pairs set.
func probs(pairs map[int]float64) []float64 {
	p := make([]float64, ClassCount)
	for i, v := range pairs {
		p[i] = v
	}
	return p
}

func TestAlphabet(t *testing.T) {
	if Alphabet[10] != "さ" {
		t.Errorf("Alphabet[10] = %q, want さ", Alphabet[10])
	}
	if Alphabet[6] != "き" {
		t.Errorf("Alphabet[6] = %q, want き", Alphabet[6])
	}

	seen := make(map[string]bool)
	for i, s := range Alphabet {
		if s == "" {
			t.Errorf("Alphabet[%d] is empty", i)
		}
		if seen[s] {
			t.Errorf("duplicate sign %q", s)
		}
		seen[s] = true
	}

	if got := Index("く"); got != 7 {
		t.Errorf("Index(く) = %d, want 7", got)
	}
	if got := Index("A"); got != -1 {
		t.Errorf("Index(A) = %d, want -1", got)
	}
}

func TestDecider_Decide(t *testing.T) {
	d := NewDecider(DefaultThreshold)

	tests := []struct {
		name     string
		input    []float64
		wantOK   bool
		wantSign string
		wantProb float64
	}{
		{
			name:     "confident sign",
			input:    probs(map[int]float64{0: 0.1, 1: 0.05, 10: 0.92}),
			wantOK:   true,
			wantSign: "さ",
			wantProb: 0.92,
		},
		{
			name:     "exactly threshold is rejected",
			input:    probs(map[int]float64{6: 0.5}),
			wantOK:   false,
			wantProb: 0.5,
		},
		{
			name:     "just above threshold is accepted",
			input:    probs(map[int]float64{6: 0.5000001}),
			wantOK:   true,
			wantSign: "き",
			wantProb: 0.5000001,
		},
		{
			name:     "low confidence",
			input:    probs(map[int]float64{3: 0.3, 4: 0.3, 5: 0.4}),
			wantOK:   false,
			wantProb: 0.4,
		},
		{
			name:     "tie goes to lowest index",
			input:    probs(map[int]float64{12: 0.6, 30: 0.6}),
			wantOK:   true,
			wantSign: "す",
			wantProb: 0.6,
		},
		{
			name:     "last index",
			input:    probs(map[int]float64{39: 0.99}),
			wantOK:   true,
			wantSign: "ろ",
			wantProb: 0.99,
		},
		{
			name:     "all zero",
			input:    probs(nil),
			wantOK:   false,
			wantProb: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := d.Decide(tt.input)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Sign != tt.wantSign {
				t.Errorf("sign = %q, want %q", got.Sign, tt.wantSign)
			}
			if got.Probability != tt.wantProb {
				t.Errorf("probability = %v, want %v", got.Probability, tt.wantProb)
			}
		})
	}
}

func TestDecider_Malformed(t *testing.T) {
	d := NewDecider(DefaultThreshold)

	tests := []struct {
		name  string
		input []float64
	}{
		{name: "nil", input: nil},
		{name: "too short", input: make([]float64, ClassCount-1)},
		{name: "too long", input: make([]float64, ClassCount+1)},
		{name: "NaN", input: probs(map[int]float64{2: math.NaN()})},
		{name: "infinite", input: probs(map[int]float64{2: math.Inf(1)})},
		{name: "negative", input: probs(map[int]float64{2: -0.1})},
		{name: "above one", input: probs(map[int]float64{2: 1.5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := d.Decide(tt.input)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("error = %v, want ErrMalformedResponse", err)
			}
			if ok {
				t.Error("malformed input must not be accepted")
			}
		})
	}
}

func TestNewDecider_Threshold(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.7, want: 0.7},
		{in: 0, want: DefaultThreshold},
		{in: 0.01, want: 0.01},
		{in: -1, want: DefaultThreshold},
		{in: 1, want: DefaultThreshold},
		{in: math.NaN(), want: DefaultThreshold},
	}
	for _, tt := range tests {
		if got := NewDecider(tt.in).Threshold(); got != tt.want {
			t.Errorf("NewDecider(%v).Threshold() = %v, want %v", tt.in, got, tt.want)
		}
	}

	d := NewDecider(0.7)
	if _, ok, _ := d.Decide(probs(map[int]float64{0: 0.65})); ok {
		t.Error("0.65 should be rejected at threshold 0.7")
	}
}

func TestDecider_WiderResponseNamesMismatch(t *testing.T) {
	// One extra column, as from a model that also knows わ.
	wide := append(probs(map[int]float64{0: 0.9}), 0.05)
	_, _, err := NewDecider(DefaultThreshold).Decide(wide)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
	if !strings.Contains(err.Error(), "alphabet mismatch") {
		t.Errorf("error %q should name the alphabet mismatch", err)
	}
}
