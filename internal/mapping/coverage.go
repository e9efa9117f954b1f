package mapping

// Report summarizes how a captured header row lines up with a Table.
type Report struct {
	// Present lists canonical fields whose source header was found.
	Present []string
	// Missing lists canonical fields whose source header is absent.
	Missing []string
	// Unmapped lists headers in the file with no mapping entry.
	Unmapped []string
}

// OK reports whether every mapped field resolved.
func (r Report) OK() bool { return len(r.Missing) == 0 }

// Coverage compares headers against the table.
func (t *Table) Coverage(headers []string) Report {
	seen := make(map[string]struct{}, len(headers))
	var rep Report
	for _, h := range headers {
		seen[h] = struct{}{}
		if _, ok := t.bySource[h]; !ok {
			rep.Unmapped = append(rep.Unmapped, h)
		}
	}
	for _, p := range t.pairs {
		if _, ok := seen[p.Source]; ok {
			rep.Present = append(rep.Present, p.Field)
		} else {
			rep.Missing = append(rep.Missing, p.Field)
		}
	}
	return rep
}
