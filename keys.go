package termcache

import (
	"strconv"
	"strings"
)

const keySeparator = "_"

var keyComponentEscaper = strings.NewReplacer("%", "%25", keySeparator, "%5F")

// BuildCacheKey encodes a term address at a given revision as
// <entity>_<revision>_<language>_<kind>. Separators inside a component are
// percent-escaped so distinct inputs never share a key.
func BuildCacheKey(id EntityID, revision Revision, language Language, kind TermKind) string {
	var sb strings.Builder

	sb.WriteString(keyComponentEscaper.Replace(string(id)))
	sb.WriteString(keySeparator)
	sb.WriteString(strconv.FormatUint(uint64(revision), 10))
	sb.WriteString(keySeparator)
	sb.WriteString(keyComponentEscaper.Replace(string(language)))
	sb.WriteString(keySeparator)
	sb.WriteString(keyComponentEscaper.Replace(string(kind)))

	return sb.String()
}

func newCacheKey(id EntityID, revision Revision, language Language, kind TermKind) *CacheKey {
	return &CacheKey{
		Key:      BuildCacheKey(id, revision, language, kind),
		EntityID: id,
		Revision: revision,
		Kind:     kind,
		Language: language,
	}
}
