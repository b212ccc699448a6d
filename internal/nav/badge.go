package nav

import "strconv"

// maxBadgeCount はバッジにそのまま表示する件数の上限。
const maxBadgeCount = 9

// BadgeText はバッジに表示する文字列を返す。0件以下の場合は空文字列。
func BadgeText(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > maxBadgeCount:
		return strconv.Itoa(maxBadgeCount) + "+"
	default:
		return strconv.Itoa(count)
	}
}
