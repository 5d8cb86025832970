// Package onboard brings a new security group under management.
//
// Onboarding is the only moment a prefix list is created. The service
// resolves the group's current membership, sizes a list with growth
// headroom (clamped to the regional service quota), seeds it with up to
// one batch of entries and registers the mapping. Everything unseeded
// converges on the first sync run.
//
// Creation and registration are two writes with no transaction between
// them. When registration fails the already created list is left behind
// and logged loudly; cleaning it up is an operator decision, not ours.
package onboard
