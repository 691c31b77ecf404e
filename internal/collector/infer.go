package collector

import "strings"

// categoryKeywords maps listing-name keywords to catalog categories.
// Longer, more specific keywords are matched first.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"산리오", "캐릭터"},
	{"포켓몬", "캐릭터"},
	{"짱구", "캐릭터"},
	{"치이카와", "캐릭터"},
	{"디즈니", "캐릭터"},
	{"피규어", "피규어"},
	{"키링", "키링"},
	{"열쇠고리", "키링"},
	{"스티커", "스티커"},
	{"미니어처", "미니어처"},
	{"인형", "인형"},
}

// brandKeywords maps listing-name keywords to capsule-toy makers.
var brandKeywords = []struct {
	keyword string
	brand   string
}{
	{"반다이", "반다이"},
	{"bandai", "반다이"},
	{"타카라토미", "타카라토미"},
	{"takara", "타카라토미"},
	{"tomy", "타카라토미"},
	{"가이낙스", "가이낙스"},
	{"키탄클럽", "키탄클럽"},
	{"kitan", "키탄클럽"},
	{"에포크", "에포크"},
	{"epoch", "에포크"},
	{"리멘트", "리멘트"},
	{"re-ment", "리멘트"},
}

// InferCategory guesses the catalog category from a listing name. An empty
// string means no keyword matched.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category
		}
	}
	return ""
}

// InferBrand guesses the maker from a listing name. An empty string means no
// keyword matched.
func InferBrand(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range brandKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.brand
		}
	}
	return ""
}
