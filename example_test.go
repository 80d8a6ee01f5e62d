package flatdb_test

import (
	"context"
	"fmt"

	"github.com/flatdb/flatdb"
)

func ExampleNewDB() {
	// To create a new database, [NewDB] should be called. It creates a new
	// instance of a datastore, loading default values and interface
	// implementations. If no file is provided, starts a in-memory-only db.
	db, _ := flatdb.NewDB(
		// Name of the datafile. If not set, the database will be
		// created as in-memory-only. Filename cannot end with '~', as
		// that is reserved for the backup file.
		flatdb.WithFilename(""),
		// If set to true, no file will be used to store the data.
		// Instead, all operations will be in-memory-only.
		flatdb.WithInMemoryOnly(true),
		// If set to true, inserted documents without an "_id" field
		// will have one generated for them.
		flatdb.WithStampIDs(false),
	)

	// Every method of the DB receives a context argument, allowing the
	// user to stop waiting if cancellation occurs before the action
	// starts.
	ctx := context.Background()

	// The method [DB.Load] should be used right after instancing a new
	// [DB] so it loads file content. It is not necessary for
	// in-memory-only databases, as they do not have anything to load.
	_ = db.Load(ctx)

	_, _ = db.Insert(ctx, "users",
		flatdb.Document{"name": "ana", "age": 34},
		flatdb.Document{"name": "bruno", "age": 17},
		flatdb.Document{"name": "carla", "age": 25},
	)

	// Plain queries use an operator mapping.
	adults, _ := db.Find(ctx, "users",
		flatdb.Query{"age": flatdb.Document{"$gte": 18}},
		flatdb.WithSort("age", 1),
	)
	for _, doc := range adults {
		fmt.Println(doc["name"])
	}

	// The chain builder expresses the same query fluently.
	n, _ := db.Chain("users").Where("age").Gte(18).Count(ctx)
	fmt.Println(n)

	// Output:
	// carla
	// ana
	// 2
}

func ExampleDB_Chain() {
	db, _ := flatdb.NewDB(flatdb.WithInMemoryOnly(true))
	ctx := context.Background()

	_, _ = db.Insert(ctx, "sales",
		flatdb.Document{"region": "north", "amount": 10.0},
		flatdb.Document{"region": "south", "amount": 4.0},
		flatdb.Document{"region": "north", "amount": 6.0},
	)

	total, _ := db.Chain("sales").Where("region").Eq("north").Sum(ctx, "amount")
	fmt.Println(total)

	// Output:
	// 16
}
