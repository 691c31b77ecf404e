package catalog

import (
	"sort"
	"strings"
)

// regionOrder is the canonical display order for regions: the capital first,
// then the metro cities, then the provinces. Regions outside this list sort
// after every canonical one, lexicographically among themselves.
var regionOrder = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

var regionRank = func() map[string]int {
	m := make(map[string]int, len(regionOrder))
	for i, r := range regionOrder {
		m[r] = i
	}
	return m
}()

// regionAliases folds full administrative names onto their conventional
// short names so 서울특별시 and 서울 group together.
var regionAliases = map[string]string{
	"서울특별시":   "서울",
	"부산광역시":   "부산",
	"대구광역시":   "대구",
	"인천광역시":   "인천",
	"광주광역시":   "광주",
	"대전광역시":   "대전",
	"울산광역시":   "울산",
	"세종특별자치시": "세종",
	"경기도":     "경기",
	"강원도":     "강원",
	"강원특별자치도": "강원",
	"충청북도":    "충북",
	"충청남도":    "충남",
	"전라북도":    "전북",
	"전북특별자치도": "전북",
	"전라남도":    "전남",
	"경상북도":    "경북",
	"경상남도":    "경남",
	"제주도":     "제주",
	"제주특별자치도": "제주",
}

// regionSuffixes are stripped from unmapped tokens, longest first, so
// special-status regions still fold onto their bare names.
var regionSuffixes = []string{"특별자치시", "특별자치도", "특별시", "광역시"}

// DeriveRegion resolves a shop's region from its postal address: the first
// whitespace-delimited token, folded onto its conventional short name.
// Returns "" for a blank address.
func DeriveRegion(address string) string {
	fields := strings.Fields(address)
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]

	if short, ok := regionAliases[token]; ok {
		return short
	}

	for _, suffix := range regionSuffixes {
		if trimmed, ok := strings.CutSuffix(token, suffix); ok && trimmed != "" {
			return trimmed
		}
	}

	return token
}

// RegionTokens returns every address first token that DeriveRegion folds
// onto region: the bare name, its suffixed administrative forms, and the
// full names aliased to it. Short province names like 충북 are not prefixes
// of their full names (충청북도), so store-side region filters must match
// against this whole set rather than a prefix pattern. The result is sorted
// and duplicate-free.
func RegionTokens(region string) []string {
	seen := map[string]struct{}{region: {}}
	tokens := []string{region}

	for _, suffix := range regionSuffixes {
		t := region + suffix
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	for full, short := range regionAliases {
		if short != region {
			continue
		}
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		tokens = append(tokens, full)
	}

	sort.Strings(tokens)
	return tokens
}

// SortRegions orders regions canonically: listed regions by rank, the rest
// after them in lexicographic order.
func SortRegions(regions []string) {
	sort.SliceStable(regions, func(i, j int) bool {
		ri, iOK := regionRank[regions[i]]
		rj, jOK := regionRank[regions[j]]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return regions[i] < regions[j]
		}
	})
}
