package composition

// Authorization is the set of identifiers the caller may query for the
// registry's authorization dimension. The zero value permits nothing.
type Authorization struct {
	User      string
	permitted map[string]bool
}

func NewAuthorization(user string, ids ...string) Authorization {
	res := Authorization{User: user, permitted: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id != "" {
			res.permitted[id] = true
		}
	}
	return res
}

func (a Authorization) Permits(id string) bool {
	return a.permitted[id]
}

func (a Authorization) Empty() bool {
	return len(a.permitted) == 0
}
