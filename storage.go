package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// openBadger opens the puzzle database in dir, or in memory when dir is
// empty. The caller must close it.
func openBadger(dir string, logger *slog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

var puzzlePrefix = []byte("puzzle/")

func puzzleKey(id string) []byte {
	return append(append([]byte(nil), puzzlePrefix...), id...)
}

func putRecord(db *badger.DB, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode puzzle %s: %w", rec.ID, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(puzzleKey(rec.ID), data)
	})
}

func loadRecords(db *badger.DB) ([]*Record, error) {
	var out []*Record
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(puzzlePrefix); it.ValidForPrefix(puzzlePrefix); it.Next() {
			item := it.Item()
			var rec Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

func deleteRecord(db *badger.DB, id string) error {
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete(puzzleKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}
