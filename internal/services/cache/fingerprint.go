package cache

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// RoadmapKey derives the cache fingerprint for a roadmap request: the target
// role lowercased with whitespace runs collapsed to underscores, suffixed
// with the week count.
func RoadmapKey(targetRole string, weeks int) string {
	role := strings.ToLower(whitespaceRun.ReplaceAllString(targetRole, "_"))
	return "roadmap_" + role + "_" + strconv.Itoa(weeks)
}

// ProfileKey derives the cache fingerprint for a simulator request: a 32-bit
// rolling hash (h = h*31 + c, wrapping in signed 32 bits) of the serialized
// profile, absolute value, rendered as lowercase hex. Colliding profiles
// share a cached result.
func ProfileKey(profile interface{}) (string, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}

	var hash int32
	for _, c := range string(data) {
		hash = hash*31 + int32(c)
	}

	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 16), nil
}
