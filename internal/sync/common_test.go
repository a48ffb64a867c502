package sync

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/pkg/httpx"
	"github.com/rotabull/supportsync/internal/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=0"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Ticket{},
		&types.TicketComment{},
		&types.SupportDoc{},
		&types.TicketCollectionRef{},
		&types.DocCollectionRef{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// fakeForge records collection and document calls. DeleteCollection fails
// with notFoundErr for collections that were never created, like the real
// service does.
type fakeForge struct {
	nextID      int
	collections map[string]string // name -> id
	documents   []forge.Document
	deleteErr   error
	createErr   error
	documentErr error
	deleted     []string
}

func newFakeForge() *fakeForge {
	return &fakeForge{collections: map[string]string{}}
}

var notFoundErr = &httpx.HTTPError{StatusCode: 404, Body: "collection not found"}

func (f *fakeForge) CreateCollection(ctx context.Context, name string) (*forge.Collection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("col-%d", f.nextID)
	f.collections[name] = id
	return &forge.Collection{ID: id, Name: name}, nil
}

func (f *fakeForge) DeleteCollection(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	if _, ok := f.collections[name]; !ok {
		return notFoundErr
	}
	delete(f.collections, name)
	return nil
}

func (f *fakeForge) CreateDocument(ctx context.Context, doc forge.Document) error {
	if f.documentErr != nil {
		return f.documentErr
	}
	f.documents = append(f.documents, doc)
	return nil
}

func (f *fakeForge) QueryWithContext(ctx context.Context, prompt string, opts forge.ContextOptions) (string, error) {
	return "", fmt.Errorf("not implemented")
}
