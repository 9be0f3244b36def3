package cmd

import (
	"github.com/colmago/colmago/internal/config"
	"github.com/colmago/colmago/internal/store"
	"github.com/colmago/colmago/internal/tui"
)

// MenuCmd opens the interactive table menu
type MenuCmd struct{}

func (m *MenuCmd) Run(st *store.Store) error {
	return tui.RunMenu(st, config.Tablas())
}
