package entitlement

// Gender of a profile. Only male profiles earn NFT points.
type Gender string

// Supported genders.
const (
	Male   Gender = "male"
	Female Gender = "female"
)

// NFTTier is the ownership tier of a verified NFT holder.
type NFTTier string

// Known NFT tiers.
const (
	TierNone      NFTTier = "none"
	TierBasic     NFTTier = "basic"
	TierRare      NFTTier = "rare"
	TierElite     NFTTier = "elite"
	TierLegendary NFTTier = "legendary"
)

// University point tiers.
const (
	universityTop  = 20
	universityHigh = 10
	universityMid  = 5
)

// defaultUniversityPoints is the curated allowlist of Bangkok institutions.
// Names not listed earn nothing.
func defaultUniversityPoints() map[string]int {
	return map[string]int{
		"Chulalongkorn University": universityTop,
		"Mahidol University":       universityTop,
		"Thammasat University":     universityTop,

		"Kasetsart University":                              universityHigh,
		"King Mongkut's University of Technology Thonburi":  universityHigh,
		"King Mongkut's Institute of Technology Ladkrabang": universityHigh,
		"Srinakharinwirot University":                       universityHigh,
		"Silpakorn University":                              universityHigh,

		"Assumption University":   universityMid,
		"Bangkok University":      universityMid,
		"Ramkhamhaeng University": universityMid,
		"Sripatum University":     universityMid,
		"Rangsit University":      universityMid,
	}
}

func defaultNFTPoints() map[NFTTier]int {
	return map[NFTTier]int{
		TierNone:      0,
		TierBasic:     3,
		TierRare:      5,
		TierElite:     10,
		TierLegendary: 15,
	}
}
