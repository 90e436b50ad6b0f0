package redis

import "fmt"

// Key prefix for all store data
const keyPrefix = "hcongame"

// changesChannel carries the path of every mutation
const changesChannel = keyPrefix + ":changes"

// docKey returns the Redis key holding one document, the JSON subtree at
// <collection>/<id>
func docKey(collection, id string) string {
	return fmt.Sprintf("%s:doc:%s:%s", keyPrefix, collection, id)
}

// indexKey returns the Redis key for the SET of document ids in a collection
func indexKey(collection string) string {
	return fmt.Sprintf("%s:idx:%s", keyPrefix, collection)
}
