// Package registry stores which security group feeds which prefix list.
//
// Mappings are keyed by security group and prefix list region, so one group
// can feed lists in several regions at once while each region holds at most
// one list for it. Sync runs treat the registry as read-only input; only
// onboarding and the operator commands write to it.
//
// # Backends
//
//   - ssm: parameters under a common path, one per mapping. No extra
//     infrastructure, but every mapping's source region is the home region.
//   - mysql: one row per mapping with the source region stored explicitly.
//
// Both backends refuse to overwrite an existing mapping; changing a mapping
// means removing and re-registering it.
package registry
