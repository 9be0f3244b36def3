package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/colmago/colmago/internal/config"
	"github.com/colmago/colmago/internal/datastore"
	"github.com/colmago/colmago/internal/store"
)

// ExportarCmd dumps all domain tables into a SQLite database for reporting
type ExportarCmd struct {
	DBFile string `help:"Ruta de la base SQLite de destino"`
}

func (e *ExportarCmd) Run(st *store.Store) error {
	dbFile := e.DBFile
	if dbFile == "" {
		dbFile = viper.GetString("export.dbfile")
	}

	exp := datastore.NewSQLiteExport(dbFile)
	if err := exp.Connect(); err != nil {
		return fmt.Errorf("failed to open export database: %w", err)
	}
	defer func() { _ = exp.Close() }()

	ctx := context.Background()
	for _, table := range config.Tablas() {
		records := st.Select(ctx, table, nil)
		rows := make([]map[string]any, len(records))
		for i, record := range records {
			rows[i] = record
		}
		if err := exp.ExportTable(table, rows); err != nil {
			return fmt.Errorf("failed to export %s: %w", table, err)
		}
		slog.Info("Exported table", "table", table, "records", len(records))
	}

	fmt.Printf("Tablas exportadas a %s\n", dbFile)
	return nil
}
