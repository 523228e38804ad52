package memorystorage

import (
	"github.com/patric-chuzhbe/todotracker/internal/db/jsondb"
)

// MemoryStorage is the JSON store without a backing file. Data lives as long as the process.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}
