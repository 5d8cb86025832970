// Package database handles connections to the mapping registry database.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration. The database is one of the
// two supported registry backends (the other being SSM Parameter Store) and holds the
// security-group-to-prefix-list mapping records.
//
// # Connect
//
// The Connect function establishes a connection with conservative pool settings and
// verifies it with a ping before handing it out. Connection, read and write timeouts
// are baked into the DSN so a broken database cannot stall a sync batch.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Registry database connection failed", err)
//	}
package database
