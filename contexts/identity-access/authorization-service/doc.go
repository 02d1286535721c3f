// Package authorization implements role-based access control for ccdepot.
//
// Users hold role assignments (reader, editor, admin). Each role grants a
// fixed permission set; CheckPermission resolves the effective permissions
// of a user, cache first, and denies by default when the lookup fails.
//
// Layering follows the other contexts: domain, application, ports, adapters
// and transport. Other contexts reach this module only through the composition
// root, never by importing its packages directly.
package authorization
