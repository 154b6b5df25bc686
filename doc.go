// Package catalog implements the credential and access layer for a
// catalog application: account registration and login, bearer token
// issuance and validation, a role based guard pipeline, and the
// transactional updater that replaces a product's image set atomically
// with the parent record.
package catalog
