package xschema

import "sort"

// Report is the root JSON-serializable validation result (spec §6.F):
// one entry per document that produced at least one finding, plus a
// synthetic entry (empty document_uri) for findings not attributable to
// any single document (e.g. a provider fetch failure).
type Report struct {
	Documents []DocumentReport `json:"documents"`
}

// DocumentReport groups every [Error] attributed to one document.
type DocumentReport struct {
	DocumentURI string       `json:"document_uri"`
	SchemaID    SchemaID     `json:"schema_id,omitempty"`
	Errors      []ReportErr  `json:"errors"`
}

// ReportErr is the JSON shape of one [Error] (spec §6.F).
type ReportErr struct {
	Kind               Kind                `json:"kind"`
	Path               Location            `json:"path,omitempty"`
	Message            string              `json:"message"`
	OffendingLocations []QualifiedLocation `json:"offending_locations,omitempty"`
	Referenced         *Referenced         `json:"referenced,omitempty"`
}

// Valid reports whether the report contains no findings, i.e. the run
// should exit 0 (spec §6.G).
func (r *Report) Valid() bool {
	for _, d := range r.Documents {
		if len(d.Errors) > 0 {
			return false
		}
	}

	return true
}

func buildReport(errs []*Error) *Report {
	byDoc := map[string]*DocumentReport{}
	var order []string

	for _, e := range errs {
		dr, ok := byDoc[e.DocumentURI]
		if !ok {
			dr = &DocumentReport{DocumentURI: e.DocumentURI, SchemaID: e.SchemaID}
			byDoc[e.DocumentURI] = dr
			order = append(order, e.DocumentURI)
		}
		dr.Errors = append(dr.Errors, ReportErr{
			Kind:               e.Kind,
			Path:               e.Path,
			Message:            e.Message,
			OffendingLocations: e.OffendingLocations,
			Referenced:         e.Referenced,
		})
	}

	sort.Strings(order)

	report := &Report{Documents: make([]DocumentReport, 0, len(order))}
	for _, uri := range order {
		dr := byDoc[uri]
		sort.SliceStable(dr.Errors, func(i, j int) bool {
			a, b := dr.Errors[i], dr.Errors[j]
			if a.Path.String() != b.Path.String() {
				return a.Path.String() < b.Path.String()
			}
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}

			return a.Message < b.Message
		})
		report.Documents = append(report.Documents, *dr)
	}

	return report
}
