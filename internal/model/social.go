package model

// InstagramProfile holds the public facts scraped from a profile page.
type InstagramProfile struct {
	Username          string  `json:"username"`
	FullName          string  `json:"full_name,omitempty"`
	Biography         string  `json:"biography,omitempty"`
	Followers         int64   `json:"followers"`
	Following         int64   `json:"following"`
	Posts             int64   `json:"posts"`
	IsPrivate         bool    `json:"is_private"`
	IsVerified        bool    `json:"is_verified"`
	HasProfilePicture bool    `json:"has_profile_picture"`
	ExternalURL       string  `json:"external_url,omitempty"`
	FollowerRatio     float64 `json:"follower_following_ratio"`
	ProfileURL        string  `json:"profile_url"`
	Error             string  `json:"error,omitempty"`
}

// InstagramPost is one post discovered on a profile's public grid.
type InstagramPost struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
}

// InstagramPostsResult lists the posts found for a profile.
type InstagramPostsResult struct {
	Username string          `json:"username"`
	Posts    []InstagramPost `json:"posts"`
	Count    int             `json:"count"`
	Error    string          `json:"error,omitempty"`
}

// EngagementResult scores how well a profile is set up for engagement.
// ProfileScore and BioScore are both bounded to [0, 100]; Breakdown
// explains how each score component was earned.
type EngagementResult struct {
	Username         string         `json:"username"`
	ProfileScore     int            `json:"profile_score"`
	BioScore         int            `json:"bio_score"`
	Breakdown        map[string]int `json:"score_breakdown"`
	PostingFrequency string         `json:"posting_frequency"`
	Recommendations  []string       `json:"recommendations"`
	Error            string         `json:"error,omitempty"`
}

// HashtagAnalysis reports hashtag usage in a profile's biography.
type HashtagAnalysis struct {
	Username        string   `json:"username"`
	Hashtags        []string `json:"hashtags"`
	Count           int      `json:"count"`
	BioLength       int      `json:"bio_length"`
	HasLink         bool     `json:"has_link"`
	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}

// ProfileComparison ranks several profiles by follower count.
type ProfileComparison struct {
	Profiles []*InstagramProfile `json:"profiles"`

	// Ranking lists usernames from most to least followers, counting
	// only profiles that were fetched successfully.
	Ranking []string `json:"ranking"`

	Error string `json:"error,omitempty"`
}
