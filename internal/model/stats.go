package model

// DimensionStat aggregates the topic mentions of one dimension.
type DimensionStat struct {
	Name            string  `json:"name"`
	Positive        int     `json:"positive"`
	Negative        int     `json:"negative"`
	Neutral         int     `json:"neutral"`
	Total           int     `json:"total"`
	PositivePercent float64 `json:"positive_percent"`
	NegativePercent float64 `json:"negative_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
	NetSentiment    float64 `json:"net_sentiment"`
	Impact          float64 `json:"impact"`
}

// BrandStat aggregates the reviews of one brand.
type BrandStat struct {
	Brand       string  `json:"brand"`
	ReviewCount int     `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
	// InvalidRatings counts blank or non-numeric ratings averaged as 0.
	InvalidRatings  int     `json:"invalid_ratings"`
	PositivePercent float64 `json:"positive_percent"`
	NegativePercent float64 `json:"negative_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
	NetSentiment    float64 `json:"net_sentiment"`
}

// TrendPoint is one ISO-week bucket of the sentiment trend.
type TrendPoint struct {
	Year         int     `json:"year"`
	Week         int     `json:"week"`
	Label        string  `json:"label"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	Total        int     `json:"total"`
	NetSentiment float64 `json:"net_sentiment"`
}

// DashboardData is the computed snapshot behind every dashboard view.
type DashboardData struct {
	TotalReviews    int     `json:"total_reviews"`
	Positive        int     `json:"positive"`
	Negative        int     `json:"negative"`
	Neutral         int     `json:"neutral"`
	PositivePercent float64 `json:"positive_percent"`
	NegativePercent float64 `json:"negative_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
	NetSentiment    float64 `json:"net_sentiment"`
	AvgRating       float64 `json:"avg_rating"`

	Trend      []TrendPoint    `json:"trend"`
	Brands     []BrandStat     `json:"brands"`
	Dimensions []DimensionStat `json:"dimensions"`
	Strengths  []DimensionStat `json:"strengths"`
	Weaknesses []DimensionStat `json:"weaknesses"`

	ActiveBrands    []string `json:"active_brands"`
	AvailableBrands []string `json:"available_brands"`
}
