// Package awsapi provides regional AWS service client bundles.
//
// The synchronizer talks to EC2, SSM, SNS and Service Quotas, potentially in
// several regions within one batch (a mapping's security group and its prefix
// list can live in different regions). This package centralizes client
// construction so the rest of the code never touches SDK configuration.
//
// # Provider and Factory
//
// Adapters depend on the Provider interface and call ForRegion to get a
// Clients bundle. The concrete Factory loads the default AWS configuration
// per region and caches bundles for the lifetime of the process. There is
// deliberately no package-level client state: whoever constructs the Factory
// owns the cache.
//
// # Narrow service interfaces
//
// EC2API, SSMAPI, SNSAPI and QuotasAPI declare only the operations this
// application uses, with signatures matching the generated clients. The real
// clients satisfy them directly, SDK paginators accept them, and the mocks
// package provides testify doubles for unit tests.
//
// # Error helpers
//
// ErrorCode, IsThrottle, IsServerFault and IsTransport classify raw SDK
// errors so adapters can translate them into the engine's error taxonomy.
package awsapi
