//go:build !sqlcipher
// +build !sqlcipher

package storage

import (
	"database/sql"
	"fmt"
)

func openSecureSQLite(path string, key string) (*sql.DB, error) {
	return nil, fmt.Errorf(
		"encrypted storage requires a sqlcipher-enabled build of paydown; rebuild with '-tags sqlcipher'",
	)
}

func secureSQLiteSupported() bool {
	return false
}
