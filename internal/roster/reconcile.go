package roster

import "github.com/noah-isme/vaxdrive-console/internal/models"

// Outcome reports what a single reconciliation did.
type Outcome int

const (
	Inserted Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// MergeResult counts the outcomes of a batch merge.
type MergeResult struct {
	Inserted int
	Updated  int
}

// Identity is the pair of keys a roster entry can be matched by.
type Identity struct {
	ID      string
	LocalID int
}

// IdentityOf returns the keys carried by s.
func IdentityOf(s models.Student) Identity {
	return Identity{ID: s.ID, LocalID: s.LocalID}
}

// IndexOf locates the entry matching id. The directory id is checked before the
// local id, and only present keys take part: two records that both lack a key
// never match on it.
func IndexOf(roster []models.Student, id Identity) int {
	if id.ID != "" {
		for i := range roster {
			if roster[i].ID == id.ID {
				return i
			}
		}
	}
	if id.LocalID != 0 {
		for i := range roster {
			if roster[i].LocalID == id.LocalID {
				return i
			}
		}
	}
	return -1
}

// Upsert replaces the entry matching rec in place, or appends rec. The
// replacement is a full overwrite. The input slice is not modified.
func Upsert(roster []models.Student, rec models.Student) ([]models.Student, Outcome) {
	out := clone(roster, 1)
	if idx := IndexOf(out, IdentityOf(rec)); idx >= 0 {
		out[idx] = rec
		return out, Updated
	}
	return append(out, rec), Inserted
}

// Merge upserts each record of batch in arrival order.
func Merge(roster []models.Student, batch []models.Student) ([]models.Student, MergeResult) {
	out := clone(roster, len(batch))
	var result MergeResult
	for _, rec := range batch {
		if idx := IndexOf(out, IdentityOf(rec)); idx >= 0 {
			out[idx] = rec
			result.Updated++
			continue
		}
		out = append(out, rec)
		result.Inserted++
	}
	return out, result
}

// Promote swaps the provisional entry carrying localID for the authoritative
// record, keeping its position. When saved is already present under its
// directory id the provisional entry is dropped instead. It reports whether the
// provisional entry was found.
func Promote(roster []models.Student, localID int, saved models.Student) ([]models.Student, bool) {
	saved.LocalID = 0
	saved.Provisional = false

	idx := IndexOf(roster, Identity{LocalID: localID})
	if localID == 0 || idx < 0 {
		out, _ := Upsert(roster, saved)
		return out, false
	}

	out := clone(roster, 0)
	if existing := IndexOf(out, Identity{ID: saved.ID}); saved.ID != "" && existing >= 0 && existing != idx {
		out[existing] = saved
		return append(out[:idx], out[idx+1:]...), true
	}
	out[idx] = saved
	return out, true
}

// Remove drops the entry matching id. Callers invoke it only after the
// directory confirmed the delete.
func Remove(roster []models.Student, id Identity) ([]models.Student, bool) {
	idx := IndexOf(roster, id)
	if idx < 0 {
		return clone(roster, 0), false
	}
	out := make([]models.Student, 0, len(roster)-1)
	out = append(out, roster[:idx]...)
	return append(out, roster[idx+1:]...), true
}

// Provisional returns the entries that have not been synced to the directory.
func Provisional(roster []models.Student) []models.Student {
	out := make([]models.Student, 0)
	for _, s := range roster {
		if s.Provisional {
			out = append(out, s)
		}
	}
	return out
}

// Landed pairs provisional entries with directory records that appeared
// between two fetches: before is the roster as it was, after is the directory's
// answer. A record pairs with at most one entry. Names must match; classes are
// compared only when the record carries a class label. The result holds the
// local ids that found a counterpart.
func Landed(pending, before, after []models.Student) map[int]bool {
	known := make(map[string]bool, len(before))
	for _, s := range before {
		if s.ID != "" {
			known[s.ID] = true
		}
	}
	fresh := make([]models.Student, 0, len(after))
	for _, s := range after {
		if s.ID != "" && !known[s.ID] {
			fresh = append(fresh, s)
		}
	}

	landed := make(map[int]bool)
	for _, entry := range pending {
		for i, rec := range fresh {
			if !EqualFold(rec.Name, entry.Name) {
				continue
			}
			if hasClassLabel(rec) && !EqualFold(rec.ClassName(), entry.ClassName()) {
				continue
			}
			landed[entry.LocalID] = true
			fresh = append(fresh[:i], fresh[i+1:]...)
			break
		}
	}
	return landed
}

// hasClassLabel is false for records whose class is only an id reference.
func hasClassLabel(s models.Student) bool {
	return s.ClassLabel != "" || (s.Class != nil && s.Class.Name != "")
}

// NextBase is the identity base for an import pass. It is at least the roster
// length, so a fresh session numbers from 1, and never below an id already
// issued, so ids freed by deletes are not handed out twice.
func NextBase(roster []models.Student, issued int) int {
	base := len(roster)
	if issued > base {
		base = issued
	}
	for _, s := range roster {
		if s.LocalID > base {
			base = s.LocalID
		}
	}
	return base
}

func clone(roster []models.Student, extra int) []models.Student {
	out := make([]models.Student, len(roster), len(roster)+extra)
	copy(out, roster)
	return out
}
