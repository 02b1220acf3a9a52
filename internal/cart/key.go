package cart

import "strings"

// NormalizeVariant canonicalizes the (size, color) half of a line-item
// key. Absent, NULL and whitespace-only values all collapse to "" so a
// client that omits the field and one that sends an empty string address
// the same line item.
func NormalizeVariant(size, color string) (string, string) {
	return strings.TrimSpace(size), strings.TrimSpace(color)
}
