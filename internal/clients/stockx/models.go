package stockx

// marketDataResponse represents the market-data payload returned by the
// marketplace API for a single product variant.
type marketDataResponse struct {
	ProductID string `json:"productId"`
	Market    struct {
		LowestAsk     float64 `json:"lowestAsk"`
		HighestBid    float64 `json:"highestBid"`
		SalesLast72h  int     `json:"salesThisPeriod"`
		DeadstockSold int     `json:"deadstockSold"`
		NumberOfAsks  int     `json:"numberOfAsks"`
		NumberOfBids  int     `json:"numberOfBids"`
		Velocity30d   float64 `json:"salesLast30Days"`
	} `json:"market"`
}
