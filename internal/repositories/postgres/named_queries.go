package postgres

import (
	"fmt"
	"regexp"
)

const QuerySubscribersWithoutAssessment = "Subscriber.notInSubAssessment"

// namedQueries holds parameterised statements invoked by name. Positional
// arguments use gorm's ? placeholder.
var namedQueries = map[string]string{
	QuerySubscribersWithoutAssessment: `SELECT s.msisdn FROM subscriber s
WHERE s.deleted = ? AND NOT EXISTS (
	SELECT 1 FROM subscriber_assessment a WHERE a.subscriber_fk = s.pk AND a.deleted = ?
)
ORDER BY s.pk LIMIT ? OFFSET ?`,
}

func namedQuery(name string) (string, error) {
	q, ok := namedQueries[name]
	if !ok {
		return "", fmt.Errorf("unknown named query %q", name)
	}
	return q, nil
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// validIdentifier guards table and view names taken from configuration before
// they are spliced into SQL
func validIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid relation name %q", name)
	}
	return nil
}
