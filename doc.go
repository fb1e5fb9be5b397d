// Package metacat federates metadata from heterogeneous data catalogs
// (relational databases, MongoDB, BigQuery) behind one service triad:
// databases, tables and partitions.
//
// # Architecture
//
// Every configured catalog gets its own connector factory. A factory is
// built from an ordered module set; each module binds implementations to
// keys and later modules override earlier ones. The binding container of a
// factory is private to its catalog, so two catalogs of the same type never
// share service instances. Connection pools are the exception: they are
// owned by the process-wide datasource manager and outlive factory Stop.
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/metacat/pkg/catalog"
//	    "github.com/ajitpratap0/metacat/pkg/config"
//	    _ "github.com/ajitpratap0/metacat/pkg/connector/jdbc"
//	)
//
//	cfg := config.NewCatalogConfig("sales_db", "jdbc")
//	cfg.JDBC = config.JDBCConfig{Dialect: "postgres", Host: "localhost", Database: "sales"}
//
//	m := catalog.NewManager()
//	defer m.Stop(ctx)
//	if err := m.Register(ctx, cfg); err != nil {
//	    return err // configuration error, the catalog is not registered
//	}
//	f, _ := m.Get("sales_db")
//	tables, _ := f.GetTableService()
//
// # Key Packages
//
//	pkg/connector/binding   - Module sets and the binding container
//	pkg/connector/factory   - Per-catalog connector factory
//	pkg/connector/core      - Service triad interfaces and models
//	pkg/connector/jdbc      - Relational catalogs (postgres, mysql, sqlite, snowflake)
//	pkg/connector/mongodb   - MongoDB catalogs
//	pkg/connector/bigquery  - BigQuery catalogs
//	pkg/catalog             - Catalog manager driving factory lifecycle
//	pkg/datasource          - Shared connection pools
//	pkg/config              - Server and catalog configuration
//	pkg/errors              - Structured error handling
//	pkg/logger              - Structured logging
//	pkg/metrics             - Prometheus metrics
//	pkg/observability       - OpenTelemetry tracing
//
// For command line usage see cmd/metacat.
package metacat
