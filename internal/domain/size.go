package domain

import (
	"strings"

	"golang.org/x/text/width"
)

// Size is a canonical garment size. Values are ordered by garment size.
type Size int

const (
	Size150cm Size = iota
	Size160cm
	SizeS
	SizeM
	SizeL
	SizeXL
	SizeXXL
)

// SizeCount is the number of tracked sizes.
const SizeCount = 7

var sizeTags = [SizeCount]string{"150cm", "160cm", "S", "M", "L", "XL", "XXL"}

// Sizes returns every size in garment order.
func Sizes() []Size {
	out := make([]Size, SizeCount)
	for i := range out {
		out[i] = Size(i)
	}
	return out
}

func (s Size) Valid() bool {
	return s >= 0 && int(s) < SizeCount
}

func (s Size) String() string {
	if !s.Valid() {
		return "Size(?)"
	}
	return sizeTags[s]
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(b []byte) error {
	parsed, ok := ParseSize(string(b))
	if !ok {
		return &UnknownKeyError{Kind: "size", Key: string(b)}
	}
	*s = parsed
	return nil
}

// ParseSize matches a canonical size tag exactly.
func ParseSize(tag string) (Size, bool) {
	for i, t := range sizeTags {
		if t == tag {
			return Size(i), true
		}
	}
	return 0, false
}

// sizeRule maps any of its markers to a size. Rules are checked in order and
// the first hit wins, so "150XL" is 150cm and "SM" is M.
type sizeRule struct {
	markers []string
	size    Size
}

var sizeRules = []sizeRule{
	{[]string{"150"}, Size150cm},
	{[]string{"160"}, Size160cm},
	{[]string{"XXL", "3L"}, SizeXXL},
	{[]string{"XL", "LL"}, SizeXL},
	{[]string{"L"}, SizeL},
	{[]string{"M"}, SizeM},
	{[]string{"S"}, SizeS},
}

// NormalizeSize maps a free-text size label such as "Mサイズ" or "ＸＬ" to a
// canonical size. The second result is false when nothing matches and the
// row carrying the label should be skipped.
func NormalizeSize(raw string) (Size, bool) {
	label := strings.ToUpper(strings.TrimSpace(width.Fold.String(raw)))
	for _, rule := range sizeRules {
		for _, m := range rule.markers {
			if strings.Contains(label, m) {
				return rule.size, true
			}
		}
	}
	return 0, false
}
