package database

// makeTestDB builds a DB with the same field wiring as makeBasicDB,
// without starting the background expire sampler, so unit tests stay
// deterministic.
func makeTestDB() *DB {
	return makeBasicDB()
}
