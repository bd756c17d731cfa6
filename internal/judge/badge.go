package judge

type Badge struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Variant string `json:"variant"`
}

var AvailableBadges = []Badge{
	{ID: "top10", Name: "Top 10%", Variant: "top"},
	{ID: "winner", Name: "Category Winner", Variant: "winner"},
	{ID: "sponsor", Name: "Sponsor Favorite", Variant: "sponsor"},
	{ID: "innovation", Name: "Most Innovative", Variant: "success"},
}

func LookupBadge(id string) (Badge, bool) {
	for _, b := range AvailableBadges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
