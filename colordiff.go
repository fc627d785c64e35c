package gifski

import "image/color"

// maxColorDiff is the sentinel distance used whenever either pixel being
// compared is fully transparent; it equals the largest distance two opaque
// colors can produce (black against white), which is what makes transparency dominate importance
// and background-similarity decisions below.
const maxColorDiff = 255 * 255 * 6

// colordiff returns a weighted squared distance between two RGBA8 colors,
// biased 2:3:1 toward green to approximate luminance sensitivity. Any
// fully-transparent pixel on either side collapses the comparison to
// maxColorDiff, since "transparent" and "some opaque color" should never be
// treated as visually close.
func colordiff(a, b color.RGBA) uint32 {
	if a.A == 0 || b.A == 0 {
		return maxColorDiff
	}
	dr := int32(a.R) - int32(b.R)
	dg := int32(a.G) - int32(b.G)
	db := int32(a.B) - int32(b.B)
	return uint32(dr*dr)*2 + uint32(dg*dg)*3 + uint32(db*db)
}
