package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/catalog"
	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/factory"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/json"
	"github.com/ajitpratap0/metacat/pkg/logger"
	"github.com/ajitpratap0/metacat/pkg/observability"
)

type cli struct {
	v       *viper.Viper
	out     io.Writer
	timeout time.Duration
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "metacat",
		Short:         "Metacat - federated metadata over heterogeneous catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringP("config", "c", "metacat.yaml", "Path to the server configuration YAML file")
	root.PersistentFlags().StringP("output", "o", "text", "Output format (text, json)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", time.Minute, "Timeout of metadata calls")
	_ = c.v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = c.v.BindPFlag("output", root.PersistentFlags().Lookup("output"))

	listFlags := func(cmd *cobra.Command) {
		cmd.Flags().String("prefix", "", "Only list names with this prefix")
		cmd.Flags().Int("limit", 0, "Maximum number of names (0 lists all)")
		cmd.Flags().Bool("desc", false, "Sort names descending")
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(c.out, "Metacat v%s\n", version)
			fmt.Fprintf(c.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(c.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "types",
		Short: "List the registered connector types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := registry.List()
			return c.render(infos, func(w io.Writer) {
				for _, info := range infos {
					fmt.Fprintf(w, "%s\t%s\t%s\n", info.Type, strings.Join(info.Variants, ","), info.Description)
				}
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "catalogs",
		Short: "List the configured catalogs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			type row struct {
				Name string `json:"name"`
				Type string `json:"type"`
			}
			rows := make([]row, len(cfg.Catalogs))
			for i, cat := range cfg.Catalogs {
				rows[i] = row{Name: cat.Name, Type: cat.Type}
			}
			return c.render(rows, func(w io.Writer) {
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Type)
				}
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Build the connector factory of every catalog and report failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.setup()
			if err != nil {
				return err
			}
			defer func() { _ = observability.Shutdown(context.Background()) }()
			ctx, cancel := c.context()
			defer cancel()

			m := catalog.NewManager()
			loadErr := m.Load(ctx, cfg.Catalogs)
			registered := m.Names()
			if err := m.Stop(ctx); err != nil {
				logger.Warn("catalog shutdown failed", zap.Error(err))
			}

			for _, name := range registered {
				fmt.Fprintf(c.out, "%s\tok\n", name)
			}
			if loadErr != nil {
				return errors.Wrap(loadErr, errors.ErrorTypeConfig,
					fmt.Sprintf("%d of %d catalogs failed", len(cfg.Catalogs)-len(registered), len(cfg.Catalogs)))
			}
			return nil
		},
	})

	databases := &cobra.Command{
		Use:   "databases CATALOG",
		Short: "List the databases of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalog(args[0], func(ctx context.Context, f *factory.ConnectorFactory) error {
				svc, err := f.GetDatabaseService()
				if err != nil {
					return err
				}
				names, err := svc.ListNames(ctx, core.QualifiedName{Catalog: args[0]}, listRequest(cmd))
				if err != nil {
					return err
				}
				return c.renderNames(names)
			})
		},
	}
	listFlags(databases)
	root.AddCommand(databases)

	tables := &cobra.Command{
		Use:   "tables CATALOG DATABASE",
		Short: "List the tables of a database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalog(args[0], func(ctx context.Context, f *factory.ConnectorFactory) error {
				svc, err := f.GetTableService()
				if err != nil {
					return err
				}
				names, err := svc.ListNames(ctx, core.NewDatabaseName(args[0], args[1]), listRequest(cmd))
				if err != nil {
					return err
				}
				return c.renderNames(names)
			})
		},
	}
	listFlags(tables)
	root.AddCommand(tables)

	root.AddCommand(&cobra.Command{
		Use:   "table CATALOG DATABASE TABLE",
		Short: "Describe a table",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalog(args[0], func(ctx context.Context, f *factory.ConnectorFactory) error {
				svc, err := f.GetTableService()
				if err != nil {
					return err
				}
				info, err := svc.Get(ctx, core.NewTableName(args[0], args[1], args[2]))
				if err != nil {
					return err
				}
				return c.render(info, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n", info.Name, info.Type)
					for _, field := range info.Fields {
						flags := ""
						if !field.Nullable {
							flags += " NOT NULL"
						}
						if field.PartitionKey {
							flags += " PARTITION KEY"
						}
						fmt.Fprintf(w, "%d\t%s\t%s%s\n", field.Position, field.Name, field.Type, flags)
					}
				})
			})
		},
	})

	partitions := &cobra.Command{
		Use:   "partitions CATALOG DATABASE TABLE",
		Short: "List the partitions of a table",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalog(args[0], func(ctx context.Context, f *factory.ConnectorFactory) error {
				svc, err := f.GetPartitionService()
				if err != nil {
					return err
				}
				req := &core.PartitionListRequest{}
				if lr := listRequest(cmd); lr != nil {
					req.ListRequest = *lr
				}
				parts, err := svc.GetPartitions(ctx, core.NewTableName(args[0], args[1], args[2]), req)
				if err != nil {
					return err
				}
				return c.render(parts, func(w io.Writer) {
					for _, p := range parts {
						fmt.Fprintf(w, "%s\t%s\n", p.Name.Partition, p.Values)
					}
				})
			})
		},
	}
	listFlags(partitions)
	root.AddCommand(partitions)

	return root
}

func listRequest(cmd *cobra.Command) *core.ListRequest {
	prefix, _ := cmd.Flags().GetString("prefix")
	limit, _ := cmd.Flags().GetInt("limit")
	desc, _ := cmd.Flags().GetBool("desc")
	if prefix == "" && limit == 0 && !desc {
		return nil
	}
	req := &core.ListRequest{Prefix: prefix}
	if limit > 0 {
		req.Page = &core.Pageable{Limit: limit}
	}
	if desc {
		req.Sort = &core.Sort{By: "name", Order: core.SortDescending}
	}
	return req
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *cli) loadConfig() (*config.ServerConfig, error) {
	return config.LoadServerConfig(c.v, c.v.GetString("config"))
}

// setup loads the configuration and initializes logging and tracing
func (c *cli) setup() (*config.ServerConfig, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, err
	}
	if err := observability.Initialize(cfg.Observability, version); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withCatalog registers a single catalog, runs fn against its factory and
// shuts everything down again
func (c *cli) withCatalog(name string, fn func(ctx context.Context, f *factory.ConnectorFactory) error) error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	catCfg, ok := cfg.Catalog(name)
	if !ok {
		return errors.Newf(errors.ErrorTypeNotFound, "catalog not available: %s", name)
	}

	ctx, cancel := c.context()
	defer cancel()

	m := catalog.NewManager()
	defer func() {
		if err := m.Stop(context.Background()); err != nil {
			logger.Warn("catalog shutdown failed", zap.Error(err))
		}
	}()
	if err := m.Register(ctx, catCfg); err != nil {
		return err
	}
	f, err := m.Get(name)
	if err != nil {
		return err
	}
	return fn(logger.WithCatalog(ctx, name), f)
}

func (c *cli) render(v interface{}, text func(w io.Writer)) error {
	if c.v.GetString("output") == "json" {
		return json.Write(c.out, v, "  ")
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (c *cli) renderNames(names []core.QualifiedName) error {
	return c.render(names, func(w io.Writer) {
		for _, n := range names {
			fmt.Fprintln(w, n.String())
		}
	})
}
