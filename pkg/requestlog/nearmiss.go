package requestlog

// NearMissInfo summarizes a stub that almost matched an unmatched request.
type NearMissInfo struct {
	StubID          string `json:"stubId"`
	StubName        string `json:"stubName,omitempty"`
	MatchPercentage int    `json:"matchPercentage"`
	Reason          string `json:"reason"`
}
