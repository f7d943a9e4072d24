package utils

import "github.com/google/uuid"

// CheckTokens filters candidate strings down to well-formed identity
// tokens. Malformed entries are dropped rather than raised, so a caller
// presenting one bad token among several valid ones does not lose the
// valid ones.
func CheckTokens(tokens []string) []uuid.UUID {
	if len(tokens) == 0 {
		return nil
	}
	valid := make([]uuid.UUID, 0, len(tokens))
	for _, t := range tokens {
		parsed, err := uuid.Parse(t)
		if err != nil {
			continue
		}
		valid = append(valid, parsed)
	}
	return valid
}

// ParseToken validates a single candidate token. Unlike the batch path,
// callers of a single-token resolution want the failure surfaced.
func ParseToken(token string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}
