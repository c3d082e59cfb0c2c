package rank

// DankRank scores an item by engagement relative to audience size:
// 0.6 * (likes/followers) * 0.4 * (comments/followers). Items without both
// likes and comments score 0, as do items from accounts without followers.
func DankRank(followers, likes, comments int64) float64 {
	if likes <= 0 || comments <= 0 || followers <= 0 {
		return 0
	}
	f := float64(followers)
	return 0.6 * (float64(likes) / f) * 0.4 * (float64(comments) / f)
}
