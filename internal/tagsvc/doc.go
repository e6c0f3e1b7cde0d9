// Package tagsvc resolves RFID tag identifiers to inventory items.
//
// Two resolvers are provided: StoreResolver reads the local tag_assignments
// table and is the default for single-site deployments; HTTPResolver queries
// an external assignment service and suits multi-site setups where tag
// commissioning happens elsewhere.
//
// Both return ErrTagUnassigned for tags with no binding, which the
// verification engine reports as a business rejection rather than an error.
package tagsvc
