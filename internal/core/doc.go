// Package core provides the business logic for company registration.
//
// The package has no HTTP or SQL dependencies. Storage engines plug in
// through [Repository] and [Queries]; uploaded bytes go through a
// [FileStore]. Web handlers, CLI tools and tests all drive the same
// [Service].
//
// # Registration
//
// [Service.RegisterCompany] runs as one unit of work:
//
//  1. Reject when a company with the same name exists ([ErrDuplicateCompany])
//  2. Insert the company and read back its generated ID
//  3. Insert exactly one applicant referencing it
//  4. Copy each file into the store and insert its file row
//  5. Commit
//
// Any failure after step 1 rolls the transaction back and deletes the
// files already written during the attempt. The file store is not part of
// the transaction, so that cleanup is best effort.
//
// The name check in step 1 does not prevent two racing requests from both
// passing it. The storage engine's unique constraint is the authoritative
// guard and its violation is reported as [ErrDuplicateCompany] as well.
//
// # Errors
//
// Service operations return *[Error] values classified by [Kind].
// [MapError] turns any error into a coded [UserMessage] for clients.
package core
