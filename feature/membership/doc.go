// Package membership resolves which private IPv4 addresses currently sit
// behind a security group.
//
// The resolver walks every network interface associated with the group,
// primary and secondary addresses included, across however many pages the
// provider returns. Membership is observational: instances, load balancer
// nodes and other attachments come and go, and each sync run simply reads
// the current truth.
//
// A group that no longer exists is reported as not found instead of an
// empty set. The distinction matters downstream: an empty set drains the
// prefix list, a not-found aborts the run and leaves it untouched.
package membership
