package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ivankuzmin/pricearchive/internal/snapshot"
)

// Prints the decoded timestamp, category tables and rows of one snapshot
// directory. Debugging aid for malformed crawls.
func main() {
	dir := flag.String("dir", "", "snapshot directory (named YYYY-MM-DD_hh-mm-ss)")
	flag.Parse()
	if *dir == "" {
		log.Fatal("-dir required")
	}

	takenAt, err := snapshot.ParseDirTime(filepath.Base(*dir), nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("snapshot %s taken at %s\n", filepath.Base(*dir), takenAt.Format("2006-01-02 15:04:05 MST"))

	src, err := snapshot.OpenSource(*dir)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()
	fmt.Printf("database %s\n", src.Path())

	ctx := context.Background()
	tables, err := src.Tables(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, table := range tables {
		fmt.Printf("table %s:\n", table)
		count := 0
		err := src.Rows(ctx, table, func(row snapshot.Row) error {
			fmt.Printf("  price=%d url=%s\n", row.Price, row.URL)
			count++
			return nil
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  (%d rows)\n", count)
	}
}
