package names

import "strings"

// Formal given name → informal variants. Unknown names never share a group
// unless identical. The regional entries at the bottom came out of matching
// failures on real rosters (TX, AK, NH) rather than any reference list.
var nicknames = map[string][]string{
	"william":     {"bill", "will", "billy", "willy"},
	"robert":      {"bob", "bobby", "rob"},
	"richard":     {"dick", "rick", "rich"},
	"james":       {"jim", "jimmy", "jamie"},
	"john":        {"jack", "johnny", "jay"},
	"joseph":      {"joe", "joey"},
	"thomas":      {"tom", "tommy"},
	"charles":     {"charlie", "chuck", "chaz"},
	"edward":      {"ed", "eddie", "ted", "teddy"},
	"michael":     {"mike", "mikey", "doc"},
	"daniel":      {"dan", "danny"},
	"david":       {"dave"},
	"stephen":     {"steve", "steven"},
	"steven":      {"steve", "stephen"},
	"christopher": {"chris"},
	"matthew":     {"matt"},
	"anthony":     {"tony"},
	"antonio":     {"tony"},
	"donald":      {"don", "donnie"},
	"timothy":     {"tim", "timmy"},
	"patrick":     {"pat", "paddy"},
	"elizabeth":   {"liz", "beth", "betty", "eliza"},
	"katherine":   {"kate", "kathy", "katie", "cathy"},
	"catherine":   {"kate", "kathy", "katie", "cathy"},
	"margaret":    {"maggie", "meg", "peggy", "marge"},
	"jennifer":    {"jen", "jenny"},
	"patricia":    {"pat", "patty", "trish"},
	"deborah":     {"deb", "debbie", "debby"},
	"pamela":      {"pam"},
	"samantha":    {"sam"},
	"samuel":      {"sam", "sammy"},
	"kenneth":     {"ken", "kenny"},
	"lawrence":    {"larry"},
	"gerald":      {"gerry", "jerry"},
	"raymond":     {"ray"},
	"andrew":      {"andy", "drew"},
	"benjamin":    {"ben"},
	"gregory":     {"greg"},
	"frederick":   {"fred", "freddy"},
	"ronald":      {"ron", "ronnie"},
	"alexander":   {"alex"},
	"alexandra":   {"ali", "alex"},
	"nicholas":    {"nick", "nicky"},
	"jonathan":    {"jack"},
	"jacob":       {"jake"},
	"philip":      {"phil"},
	"phillip":     {"phil"},
	"susan":       {"sue"},
	"suzanne":     {"sue", "suzy"},
	"cynthia":     {"cindy"},
	"lucinda":     {"cindy"},
	"christine":   {"tina", "chris"},
	"melissa":     {"missy"},
	"jessica":     {"jess"},
	"guadalupe":   {"lupe"},
	"maria luisa": {"lulu"},
	"armando":     {"mando"},
	"jesus":       {"chuy"},
	"juan":        {"chuy"},
	"rafael":      {"rafa"},
	"alejandro":   {"alex"},
	"roberto":     {"bobby"},
	"michel":      {"mike"},
}

var nicknameGroups = map[string]map[string]bool{}

func init() {
	for formal, nicks := range nicknames {
		group := make(map[string]bool, len(nicks)+1)
		group[formal] = true
		for _, n := range nicks {
			group[n] = true
		}
		nicknameGroups[formal] = group
		for _, n := range nicks {
			// a nickname can belong to several formal names ("alex"),
			// keep the first group and merge the rest into it
			if existing, ok := nicknameGroups[n]; ok {
				for member := range group {
					existing[member] = true
				}
			} else {
				nicknameGroups[n] = group
			}
		}
	}
}

// SameGroup reports whether two first names are nickname equivalents,
// including the trivial a == b case. Comparison is case-insensitive.
func SameGroup(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return true
	}
	if g := nicknameGroups[a]; g != nil && g[b] {
		return true
	}
	if g := nicknameGroups[b]; g != nil && g[a] {
		return true
	}
	return false
}
