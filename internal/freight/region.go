package freight

import "strconv"

// Region is a Brazilian federative unit code used as the rate lookup key.
type Region string

const (
	RegionSC      Region = "SC"
	RegionSP      Region = "SP"
	RegionRJ      Region = "RJ"
	RegionMG      Region = "MG"
	RegionBA      Region = "BA"
	RegionPR      Region = "PR"
	RegionRS      Region = "RS"
	RegionES      Region = "ES"
	RegionDefault Region = "DEFAULT"
)

type prefixRange struct {
	lo, hi int
	region Region
}

// Approximate CEP prefix ranges, checked in order.
var prefixRanges = []prefixRange{
	{88, 89, RegionSC},
	{1, 19, RegionSP},
	{20, 28, RegionRJ},
	{30, 39, RegionMG},
	{40, 48, RegionBA},
	{80, 87, RegionPR},
	{90, 99, RegionRS},
}

// ResolveRegion maps the first two digits of a normalized CEP to a region.
// Unknown or malformed input resolves to RegionDefault.
func ResolveRegion(postalCode string) Region {
	if len(postalCode) < 2 || !isDigit(postalCode[0]) || !isDigit(postalCode[1]) {
		return RegionDefault
	}
	prefix, err := strconv.Atoi(postalCode[:2])
	if err != nil {
		return RegionDefault
	}
	for _, r := range prefixRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.region
		}
	}
	return RegionDefault
}

// LeadTime returns the delivery window in business days for a region.
func LeadTime(r Region) string {
	switch r {
	case RegionSC, RegionPR, RegionRS:
		return "2-4"
	case RegionSP, RegionRJ, RegionMG, RegionES:
		return "3-6"
	default:
		return "5-9"
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
