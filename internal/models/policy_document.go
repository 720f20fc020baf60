package models

import "time"

// PolicyDocumentKind names a singleton policy document.
type PolicyDocumentKind string

const (
	PolicyDocumentHonors     PolicyDocumentKind = "latin_honors"
	PolicyDocumentGraduation PolicyDocumentKind = "graduation"
)

// PolicyDocument is a versionless JSONB policy blob keyed by kind. Honors
// and graduation policies are institution singletons, unlike the per-program
// SAP policies.
type PolicyDocument struct {
	Kind      PolicyDocumentKind `db:"kind" json:"kind"`
	Document  []byte             `db:"document" json:"document"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}
