package vault

import (
	"time"

	id "veritas/pkg/domain"
)

// StoredRecord is an encrypted identity payload at rest, keyed by the
// subject it belongs to.
type StoredRecord struct {
	OrgID     id.OrgID  `json:"orgId"`
	SubjectID string    `json:"subjectId"`
	Record    Record    `json:"record"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
