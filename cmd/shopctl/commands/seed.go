package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/infrastructure/store"
)

var seedFile string

// seedCmd loads catalog products from a YAML file
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load products into the catalog",
	Long: `Load products from a YAML (or JSON) list into the catalog. Products
whose name already exists are skipped; blank fields get the same defaults
as products created from the admin console.

Example file:
  - name: Classic Fudge Brownie
    price: "699"
    tag: Bestseller
    ingredients: [dark chocolate, butter]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return err
		}
		var products []product.Product
		if err := yaml.Unmarshal(data, &products); err != nil {
			return fmt.Errorf("failed to parse %s: %w", seedFile, err)
		}
		return withGateway(cmd.Context(), func(gw store.Gateway) error {
			_, err := seedProducts(cmd.Context(), gw, products, cmd.OutOrStdout())
			return err
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "products.yaml", "Product list to load")
	rootCmd.AddCommand(seedCmd)
}

// seedProducts creates every product not already in the catalog and
// returns how many were created.
func seedProducts(ctx context.Context, gw store.Gateway, products []product.Product, out io.Writer) (int, error) {
	existing, err := gw.Products.List(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[strings.ToLower(p.Name)] = true
	}

	svc := newAdmin(gw)
	created := 0
	for _, p := range products {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if names[key] {
			fmt.Fprintf(out, "skip   %s (exists)\n", p.Name)
			continue
		}
		saved, err := svc.CreateProduct(ctx, p)
		if err != nil {
			return created, fmt.Errorf("product %q: %w", p.Name, err)
		}
		names[key] = true
		created++
		fmt.Fprintf(out, "create %s %s %s\n", saved.ID, saved.Name, saved.Price)
	}
	fmt.Fprintf(out, "%d created, %d skipped\n", created, len(products)-created)
	return created, nil
}
