package ingest

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Identity names the data source an ingest run is writing on behalf of,
// the inputs used to derive the vector store's namespace/groupname/schema
// and the staging store's table name.
type Identity struct {
	NamespaceID  uuid.UUID
	DatasourceID uuid.UUID
	Slug         string
}

var canonicalPattern = regexp.MustCompile(`[^\w\d_$]`)

// Canonical lowercases s and replaces every character outside [A-Za-z0-9_$]
// with an underscore, matching the vector store's namespace-safe naming
// rule.
func Canonical(s string) string {
	lower := strings.ToLower(s)
	return canonicalPattern.ReplaceAllString(lower, "_")
}

// Namespace returns the vector store namespace for this identity.
func (id Identity) Namespace() string {
	return "onyx__" + Canonical(id.NamespaceID.String())
}

// GroupName returns the vector store group name for this identity.
func (id Identity) GroupName() string {
	return id.Slug + "__" + Canonical(id.DatasourceID.String())
}

// Schema returns the vector store schema name for this identity.
func (id Identity) Schema() string {
	return id.Slug
}

// StagingTable returns the fully-qualified staging table name for stream
// under this identity: `{staging_schema}."{slug}__{stream}__{ds_id}"`.
func (id Identity) StagingTable(stagingSchema, stream string) string {
	return stagingSchema + `."` + id.Slug + "__" + stream + "__" + id.DatasourceID.String() + `"`
}
