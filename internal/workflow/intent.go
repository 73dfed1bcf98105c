package workflow

import (
	"regexp"
	"strings"
)

// intentRule maps a trigger pattern to the workflow kind it starts.
type intentRule struct {
	pattern *regexp.Regexp
	kind    Kind
}

// intentRules are tried in declared order and the first match wins. The
// patterns are not mutually exclusive, so the order is part of the contract:
// leave phrasing shadows expense phrasing shadows timesheet phrasing.
var intentRules = []intentRule{
	{regexp.MustCompile(`leave request|request leave|request (.*) (off|leave)|vacation time|holiday request|request (.*) holiday|submit leave request|take (.*) leave`), KindLeaveRequest},
	{regexp.MustCompile(`expense (report|request)|file (an|my) expense|submit (an|my) expense`), KindExpenseReport},
	{regexp.MustCompile(`timesheet|log (my )?hours|update (my )?time`), KindTimesheetLog},
}

// Detect classifies a free-text utterance into a workflow kind. It is only
// meaningful when no workflow is active; the second return is false when no
// rule matches and the utterance should go to document Q&A instead.
func Detect(utterance string) (Kind, bool) {
	q := strings.ToLower(utterance)
	for _, rule := range intentRules {
		if rule.pattern.MatchString(q) {
			return rule.kind, true
		}
	}
	return "", false
}
