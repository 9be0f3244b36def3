package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/colmago/colmago/internal/seed"
	"github.com/colmago/colmago/internal/store"
)

// SemillaCmd loads records per table from a YAML file and inserts them
// through the record store
type SemillaCmd struct {
	Archivo string `arg:"" help:"Archivo YAML con registros por tabla"`
}

func (s *SemillaCmd) Run(st *store.Store) error {
	tables, err := seed.Load(s.Archivo)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx := context.Background()
	inserted, failed := 0, 0
	for _, name := range names {
		for _, record := range tables[name] {
			if st.Insert(ctx, name, record) {
				inserted++
			} else {
				failed++
			}
		}
		slog.Info("Seeded table", "table", name, "records", len(tables[name]))
	}

	if failed > 0 {
		return fmt.Errorf("%d registros no se pudieron insertar (%d insertados)", failed, inserted)
	}
	fmt.Printf("Insertados %d registros\n", inserted)
	return nil
}
