package query

// keywordScheme maps a lower-case keyword to its canonical scheme name.
type keywordScheme struct {
	Keyword string
	Scheme  string
}

// Canonical scheme names produced by the keyword table.
const (
	SchemeMinorForestProduce = "Minor Forest Produce Scheme"
	SchemeHousingSupport     = "Housing Support Scheme"
	SchemeFarmSupport        = "Farm Support Scheme"
	SchemePDS                = "Public Distribution System"
)

// schemeKeywords is scanned in order and the first keyword contained in the
// lower-cased question wins. Longer phrases precede their abbreviations.
// Matching is plain substring containment, so "ration" also hits words such
// as "registration".
var schemeKeywords = []keywordScheme{
	{"minor forest produce", SchemeMinorForestProduce},
	{"mfp", SchemeMinorForestProduce},
	{"housing", SchemeHousingSupport},
	{"indlu", SchemeHousingSupport},
	{"homestead", SchemeHousingSupport},
	{"house", SchemeHousingSupport},
	{"farm support", SchemeFarmSupport},
	{"agriculture support", SchemeFarmSupport},
	{"pds", SchemePDS},
	{"ration", SchemePDS},
}

// broadKeywords is the last resort, tried only after the stored scheme
// names: single generic words that would shadow a stored scheme such as
// "Agriculture Input Subsidy" if they were in schemeKeywords.
var broadKeywords = []keywordScheme{
	{"housing", SchemeHousingSupport},
	{"house", SchemeHousingSupport},
	{"homestead", SchemeHousingSupport},
	{"minor forest produce", SchemeMinorForestProduce},
	{"mfp", SchemeMinorForestProduce},
	{"farm", SchemeFarmSupport},
	{"agriculture", SchemeFarmSupport},
	{"pds", SchemePDS},
	{"ration", SchemePDS},
}

// DefaultStates are the state names recognized by the location heuristic.
var DefaultStates = []string{"jharkhand", "odisha", "chhattisgarh"}
