package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectMongo_BadURI(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://127.0.0.1:1/?connectTimeoutMS=200&serverSelectionTimeoutMS=200")

	_, err := ConnectMongo()
	assert.Error(t, err)
}

func TestDatabaseName(t *testing.T) {
	t.Setenv("MONGO_DB", "")
	assert.Equal(t, "autotracks", DatabaseName())

	t.Setenv("MONGO_DB", "autotracks_test")
	assert.Equal(t, "autotracks_test", DatabaseName())
}
