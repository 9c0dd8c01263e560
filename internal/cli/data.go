package cli

import (
	"context"
	"fmt"
	"strings"

	"healthmate/internal/app"
	"healthmate/internal/core/domain"

	"github.com/spf13/cobra"
)

func resourceNames() string {
	names := make([]string, 0, len(domain.Resources))
	for _, r := range domain.Resources {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func newListCmd(factory AppFactory) *cobra.Command {
	var (
		page    int
		limit   int
		orderBy string
		filters []string
	)

	cmd := &cobra.Command{
		Use:     "list <resource>",
		Short:   "List records of a resource",
		Long:    "List records of a resource. Resources: " + resourceNames() + ".",
		Example: `  healthctl list medications
  healthctl list health-metrics --filter metric_type=weight --order -recorded_at`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := domain.ParseResource(args[0])
			if err != nil {
				return err
			}
			opts := domain.ListOptions{Page: page, Limit: limit, OrderBy: orderBy, Filters: map[string]string{}}
			for _, f := range filters {
				key, value, ok := strings.Cut(f, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid filter %q (want key=value)", f)
				}
				opts.Filters[key] = value
			}

			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				if !a.Session.IsAuthenticated() {
					return sessionError(a.Session.Snapshot())
				}
				if resource == domain.ResourceProfile {
					profile, err := a.Data.GetProfile(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), profile)
				}
				list, err := a.Data.List(ctx, resource, opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "records per page")
	cmd.Flags().StringVar(&orderBy, "order", "", "order by field, prefix with - for descending")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "key=value filter, repeatable")
	return cmd
}

func newGetCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := domain.ParseResource(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				if !a.Session.IsAuthenticated() {
					return sessionError(a.Session.Snapshot())
				}
				doc, err := a.Data.Get(ctx, resource, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), doc)
			})
		},
	}
}
