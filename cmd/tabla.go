package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/colmago/colmago/internal/store"
)

// ListarCmd lists the records of a table, optionally filtered
type ListarCmd struct {
	Tabla  string   `arg:"" help:"Nombre de la tabla"`
	Filtro []string `short:"f" help:"Filtro campo=valor de igualdad exacta (repetible)"`
}

// AgregarCmd inserts one record into a table
type AgregarCmd struct {
	Tabla string   `arg:"" help:"Nombre de la tabla"`
	Campo []string `short:"c" required:"" help:"Campo campo=valor del registro (repetible)"`
}

// ActualizarCmd merges fields into the record with the given id
type ActualizarCmd struct {
	Tabla string   `arg:"" help:"Nombre de la tabla"`
	ID    int      `arg:"" help:"Id del registro"`
	Campo []string `short:"c" required:"" help:"Campo campo=valor a sobrescribir (repetible)"`
}

// EliminarCmd deletes the record with the given id
type EliminarCmd struct {
	Tabla string `arg:"" help:"Nombre de la tabla"`
	ID    int    `arg:"" help:"Id del registro"`
}

// EstadoCmd prints the connection status chosen at startup
type EstadoCmd struct{}

// parsePairs converts repeated "campo=valor" flags into a record mapping.
func parsePairs(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("par campo=valor inválido: %q", pair)
		}
		fields[k] = v
	}
	return fields, nil
}

// recordColumns returns the union of field names across records, id first
// and the rest sorted.
func recordColumns(records []store.Record) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for field := range record {
			seen[field] = true
		}
	}

	var cols []string
	for field := range seen {
		if field != "id" {
			cols = append(cols, field)
		}
	}
	sort.Strings(cols)
	if seen["id"] {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

func printRecords(records []store.Record) {
	if len(records) == 0 {
		fmt.Println("Sin registros.")
		return
	}

	cols := recordColumns(records)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for _, record := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			if v, ok := record[col]; ok {
				row[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func (l *ListarCmd) Run(st *store.Store) error {
	filters, err := parsePairs(l.Filtro)
	if err != nil {
		return err
	}

	records := st.Select(context.Background(), l.Tabla, filters)
	printRecords(records)
	return nil
}

func (a *AgregarCmd) Run(st *store.Store) error {
	record, err := parsePairs(a.Campo)
	if err != nil {
		return err
	}

	if !st.Insert(context.Background(), a.Tabla, record) {
		return fmt.Errorf("no se pudo agregar el registro a %s", a.Tabla)
	}
	fmt.Printf("Registro agregado a %s\n", a.Tabla)
	return nil
}

func (a *ActualizarCmd) Run(st *store.Store) error {
	record, err := parsePairs(a.Campo)
	if err != nil {
		return err
	}

	if !st.Update(context.Background(), a.Tabla, a.ID, record) {
		return fmt.Errorf("no se pudo actualizar el registro %d de %s", a.ID, a.Tabla)
	}
	fmt.Printf("Registro %d de %s actualizado\n", a.ID, a.Tabla)
	return nil
}

func (e *EliminarCmd) Run(st *store.Store) error {
	if !st.Delete(context.Background(), e.Tabla, e.ID) {
		return fmt.Errorf("no se pudo eliminar el registro %d de %s", e.ID, e.Tabla)
	}
	fmt.Printf("Registro %d de %s eliminado\n", e.ID, e.Tabla)
	return nil
}

func (e *EstadoCmd) Run(st *store.Store) error {
	fmt.Println(st.ConnectionStatus())
	return nil
}
