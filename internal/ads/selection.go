package ads

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ModeKind enumerates the per-run selection policies.
type ModeKind int

const (
	// ModeAll selects every ad.
	ModeAll ModeKind = iota
	// ModeDue selects ads whose republication interval has elapsed.
	ModeDue
	// ModeNew selects ads that have no id assigned yet.
	ModeNew
	// ModeByID selects ads whose external id is in an explicit set.
	ModeByID
)

// Mode is the per-run selection policy. Immutable for the run's duration.
type Mode struct {
	Kind ModeKind
	// IDs holds the explicit identifier set for ModeByID, in the order given.
	IDs []int64

	idSet map[int64]struct{}
}

var idListPattern = regexp.MustCompile(`^\d+(,\d+)*$`)

// ParseMode parses a run selector: "all", "due", "new", or a comma-separated
// list of ad ids like "1,2,3".
func ParseMode(selector string) (Mode, error) {
	s := strings.ToLower(strings.TrimSpace(selector))
	switch s {
	case "all":
		return Mode{Kind: ModeAll}, nil
	case "due":
		return Mode{Kind: ModeDue}, nil
	case "new":
		return Mode{Kind: ModeNew}, nil
	}
	if idListPattern.MatchString(s) {
		parts := strings.Split(s, ",")
		m := Mode{Kind: ModeByID, idSet: make(map[int64]struct{}, len(parts))}
		for _, p := range parts {
			id, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return Mode{}, fmt.Errorf("invalid ad id %q in selector %q", p, selector)
			}
			if _, dup := m.idSet[id]; dup {
				continue
			}
			m.idSet[id] = struct{}{}
			m.IDs = append(m.IDs, id)
		}
		return m, nil
	}
	return Mode{}, fmt.Errorf("invalid ads selector %q: must be all, due, new or a comma-separated id list", selector)
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeAll:
		return "all"
	case ModeDue:
		return "due"
	case ModeNew:
		return "new"
	default:
		parts := make([]string, len(m.IDs))
		for i, id := range m.IDs {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ",")
	}
}

// Selects reports whether the ad is selected under this mode.
func (m Mode) Selects(d *ResolvedDefinition, now time.Time) bool {
	ok, _ := m.Decide(d, now)
	return ok
}

// Decide is Selects plus a human-readable skip reason for log output.
// Selection is a pure filter; the active flag is handled by the caller.
func (m Mode) Decide(d *ResolvedDefinition, now time.Time) (bool, string) {
	switch m.Kind {
	case ModeNew:
		if d.ID != 0 {
			return false, "is not new, already has an id assigned"
		}
	case ModeByID:
		if _, ok := m.idSet[d.ID]; !ok {
			return false, "id is not in the requested id set"
		}
	case ModeDue:
		last, ok := lastUpdated(d)
		if !ok {
			// never published
			return true, ""
		}
		ageDays := int(now.Sub(last).Hours() / 24)
		if ageDays <= d.RepublicationInterval {
			return false, fmt.Sprintf("was last published %d days ago, republication is only required every %d days",
				ageDays, d.RepublicationInterval)
		}
	}
	return true, ""
}

func lastUpdated(d *ResolvedDefinition) (time.Time, bool) {
	if d.UpdatedOn != "" {
		if t, ok := ParseTime(d.UpdatedOn); ok {
			return t, true
		}
	}
	if d.CreatedOn != "" {
		if t, ok := ParseTime(d.CreatedOn); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
