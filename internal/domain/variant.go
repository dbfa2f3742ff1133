package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Variant is one of the four tracked T-shirt configurations: body colour
// (white or black) crossed with whether the ゼンプロ mark is printed.
type Variant int

const (
	WhiteNoMark Variant = iota
	BlackNoMark
	WhiteMark
	BlackMark
)

// VariantCount is the number of tracked variants.
const VariantCount = 4

type variantInfo struct {
	label string
	slug  string
	white bool
	mark  bool
}

// Labels are persisted verbatim as inventory keys; do not edit them.
var variants = [VariantCount]variantInfo{
	WhiteNoMark: {"パンクラス×禅道会コラボTシャツ(ホワイト)ゼンプロマークなし", "white-no-mark", true, false},
	BlackNoMark: {"パンクラス×禅道会コラボTシャツ(ブラック)ゼンプロマークなし", "black-no-mark", false, false},
	WhiteMark:   {"パンクラス×禅道会コラボTシャツ(ホワイト)ゼンプロマークあり", "white-mark", true, true},
	BlackMark:   {"パンクラス×禅道会コラボTシャツ(ブラック)ゼンプロマークあり", "black-mark", false, true},
}

var (
	whiteMarkers = []string{"白", "ホワイト"}
	markPresent  = "あり"
)

// Variants returns every variant in canonical order.
func Variants() []Variant {
	out := make([]Variant, VariantCount)
	for i := range out {
		out[i] = Variant(i)
	}
	return out
}

func (v Variant) Valid() bool {
	return v >= 0 && int(v) < VariantCount
}

// Label is the full product name used as the persisted key.
func (v Variant) Label() string {
	if !v.Valid() {
		return ""
	}
	return variants[v].label
}

// Slug is a short ASCII identifier for query strings and flags.
func (v Variant) Slug() string {
	if !v.Valid() {
		return ""
	}
	return variants[v].slug
}

func (v Variant) White() bool { return v.Valid() && variants[v].white }

func (v Variant) Marked() bool { return v.Valid() && variants[v].mark }

func (v Variant) String() string {
	if !v.Valid() {
		return "Variant(?)"
	}
	return variants[v].label
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.Label()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, ok := ParseVariant(string(b))
	if !ok {
		return &UnknownKeyError{Kind: "variant", Key: string(b)}
	}
	*v = parsed
	return nil
}

// ParseVariant accepts either the persisted label or the slug.
func ParseVariant(s string) (Variant, bool) {
	s = strings.TrimSpace(s)
	for i, info := range variants {
		if s == info.label || strings.EqualFold(s, info.slug) {
			return Variant(i), true
		}
	}
	return 0, false
}

func variantFor(white, mark bool) Variant {
	switch {
	case white && !mark:
		return WhiteNoMark
	case !white && !mark:
		return BlackNoMark
	case white && mark:
		return WhiteMark
	default:
		return BlackMark
	}
}

// ClassifyVariant infers the variant from a free-text label, normally an
// uploaded file's name. Anything without a white marker is black, anything
// without "あり" is unmarked. A blank label cannot be classified.
func ClassifyVariant(label string) (Variant, bool) {
	s := strings.TrimSpace(norm.NFC.String(width.Fold.String(label)))
	if s == "" {
		return 0, false
	}

	white := false
	for _, m := range whiteMarkers {
		if strings.Contains(s, m) {
			white = true
			break
		}
	}
	return variantFor(white, strings.Contains(s, markPresent)), true
}
