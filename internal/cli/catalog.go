package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/catalog"
	"github.com/roach88/plansql/internal/queryir"
)

// CatalogListing is the JSON shape of the catalog command.
type CatalogListing struct {
	EntitySets []EntitySetListing  `json:"entitySets"`
	Functions  []*queryir.Function `json:"functions"`
}

// EntitySetListing is one entity set with its column types spelled out.
type EntitySetListing struct {
	Name          string          `json:"name"`
	Table         string          `json:"table"`
	Schema        string          `json:"schema,omitempty"`
	DefiningQuery string          `json:"definingQuery,omitempty"`
	Columns       []ColumnListing `json:"columns"`
}

// ColumnListing is one column of an entity set.
type ColumnListing struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Identity bool   `json:"identity,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog <catalog-dir>",
		Short: "Check a CUE catalog and list its descriptors",
		Long: `Load a CUE catalog directory and list the entity sets and functions
it declares. Definition errors are reported with their CUE position.

Exit codes:
  0 - Catalog loaded
  2 - Catalog invalid or not found`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCatalog(opts *RootOptions, dir string, cmd *cobra.Command) error {
	pr := newPrinter(opts, cmd)

	cat, err := LoadCatalog(dir)
	if err != nil {
		return reportLoadError(pr, err)
	}

	listing := listCatalog(cat)
	pr.notef("Loaded %d entity set(s) and %d function(s) from %s",
		len(listing.EntitySets), len(listing.Functions), dir)

	if pr.json {
		return pr.ok(listing)
	}
	writeCatalogText(pr.out, listing)
	return nil
}

func listCatalog(cat *catalog.Catalog) CatalogListing {
	listing := CatalogListing{
		EntitySets: []EntitySetListing{},
		Functions:  []*queryir.Function{},
	}
	for _, name := range cat.EntitySetNames() {
		es, _ := cat.EntitySet(name)
		esl := EntitySetListing{
			Name:          es.Name,
			Table:         es.TableName(),
			Schema:        es.Schema,
			DefiningQuery: es.DefiningQuery,
			Columns:       make([]ColumnListing, 0, len(es.Columns)),
		}
		for _, c := range es.Columns {
			esl.Columns = append(esl.Columns, ColumnListing{
				Name:     c.Name,
				Type:     c.Type.String(),
				Nullable: c.Nullable,
				Identity: c.Identity,
			})
		}
		listing.EntitySets = append(listing.EntitySets, esl)
	}
	for _, name := range cat.FunctionNames() {
		fn, _ := cat.Function(name)
		listing.Functions = append(listing.Functions, fn)
	}
	return listing
}

func writeCatalogText(w io.Writer, listing CatalogListing) {
	for _, es := range listing.EntitySets {
		table := es.Table
		if es.Schema != "" {
			table = es.Schema + "." + table
		}
		if es.DefiningQuery != "" {
			table = "(defining query)"
		}
		fmt.Fprintf(w, "%s -> %s\n", es.Name, table)
		for _, c := range es.Columns {
			var flags string
			if c.Nullable {
				flags += " null"
			}
			if c.Identity {
				flags += " identity"
			}
			fmt.Fprintf(w, "  %s %s%s\n", c.Name, c.Type, flags)
		}
	}
	for _, fn := range listing.Functions {
		line := fn.FullName()
		if fn.StoreName != "" {
			line += " -> " + fn.StoreName
		}
		if fn.BuiltIn {
			line += " builtIn"
		}
		if fn.Niladic {
			line += " niladic"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "✓ %d entity set(s), %d function(s)\n", len(listing.EntitySets), len(listing.Functions))
}
