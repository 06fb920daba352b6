package shared

// MeLiked tells an authenticated viewer that they like a target.
// Read paths attach zero or one of these to each item.
type MeLiked struct {
	MemberID   string `json:"memberId"`
	LikeRefID  string `json:"likeRefId"`
	MyFavorite bool   `json:"myFavorite"`
}
