package registry

import (
	"fmt"
	"strings"
)

type Issue struct {
	Role     string `json:"role"`
	Endpoint string `json:"endpoint"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

const (
	IssueEndpointEmpty     = "endpoint_empty"
	IssueEndpointDuplicate = "endpoint_duplicate"
	IssueColumnsEmpty      = "columns_empty"
	IssueColumnDuplicate   = "column_duplicate"
	IssueIDFieldUnknown    = "id_field_unknown"
	IssueMetricDuplicate   = "metric_duplicate"
)

// Lint проверяет базовые противоречия в реестре.
func (r *Registry) Lint() []Issue {
	var issues []Issue
	for _, role := range r.Roles() {
		s := r.roles[role]
		seen := map[string]struct{}{}
		for _, t := range s.Tables {
			ep := strings.TrimSpace(t.Endpoint)
			if ep == "" {
				issues = append(issues, Issue{Role: role, Code: IssueEndpointEmpty, Message: fmt.Sprintf("table %q has empty endpoint", t.Label)})
				continue
			}
			if _, dup := seen[ep]; dup {
				issues = append(issues, Issue{Role: role, Endpoint: ep, Code: IssueEndpointDuplicate, Message: "endpoint must be unique within a role"})
			}
			seen[ep] = struct{}{}

			if len(t.Columns) == 0 {
				issues = append(issues, Issue{Role: role, Endpoint: ep, Code: IssueColumnsEmpty, Message: "table has no columns"})
			}
			cols := map[string]struct{}{}
			for _, c := range t.Columns {
				if _, dup := cols[c]; dup {
					issues = append(issues, Issue{Role: role, Endpoint: ep, Code: IssueColumnDuplicate, Message: fmt.Sprintf("column %q listed twice", c)})
				}
				cols[c] = struct{}{}
			}
			// id_field либо среди колонок, либо среди известных ключей
			if t.IDField != "" {
				_, inCols := cols[t.IDField]
				if !inCols && !isCandidate(t.IDField) {
					issues = append(issues, Issue{Role: role, Endpoint: ep, Code: IssueIDFieldUnknown, Message: fmt.Sprintf("id_field %q is neither a column nor a known key", t.IDField)})
				}
			}
		}
		metrics := map[string]struct{}{}
		for _, m := range s.Metrics {
			if _, dup := metrics[m.Name]; dup {
				issues = append(issues, Issue{Role: role, Endpoint: m.Endpoint, Code: IssueMetricDuplicate, Message: fmt.Sprintf("metric %q listed twice", m.Name)})
			}
			metrics[m.Name] = struct{}{}
		}
	}
	return issues
}

func isCandidate(name string) bool {
	for _, c := range IDCandidates {
		if c == name {
			return true
		}
	}
	return false
}
