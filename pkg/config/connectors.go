// Package config provides backend-specific connection settings
package config

// JDBCConfig contains the connection descriptor of a relational catalog.
// Either DSN or the discrete host fields must be set.
type JDBCConfig struct {
	// Dialect selects the SQL dialect adapter (postgres, mysql, sqlite, snowflake)
	Dialect string `yaml:"dialect" json:"dialect" mapstructure:"dialect"`
	// DSN is a driver-native connection string; when set it wins over the discrete fields
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`

	Host     string `yaml:"host" json:"host" mapstructure:"host"`
	Port     int    `yaml:"port" json:"port" mapstructure:"port"`
	Database string `yaml:"database" json:"database" mapstructure:"database"`
	Username string `yaml:"username" json:"username" mapstructure:"username"`
	Password string `yaml:"password" json:"password" mapstructure:"password"`

	// SSLMode is passed to postgres as sslmode and to mysql as tls
	SSLMode string `yaml:"ssl_mode" json:"ssl_mode" mapstructure:"ssl_mode"`

	// Snowflake specific
	Account   string `yaml:"account" json:"account" mapstructure:"account"`
	Warehouse string `yaml:"warehouse" json:"warehouse" mapstructure:"warehouse"`
	Role      string `yaml:"role" json:"role" mapstructure:"role"`

	// Params are appended to the generated DSN
	Params map[string]string `yaml:"params" json:"params" mapstructure:"params"`
}

// HasCredentials returns true if a username is configured
func (j *JDBCConfig) HasCredentials() bool {
	return j.Username != ""
}

// MongoDBConfig contains configuration for MongoDB catalogs
type MongoDBConfig struct {
	// URI is the MongoDB connection string
	URI string `yaml:"uri" json:"uri" mapstructure:"uri"`
	// AppName is reported to the server for diagnostics
	AppName string `yaml:"app_name" json:"app_name" mapstructure:"app_name"`
	// IncludeSystem lists admin/local/config databases too
	IncludeSystem bool `yaml:"include_system" json:"include_system" mapstructure:"include_system"`
}

// BigQueryConfig contains configuration for BigQuery catalogs
type BigQueryConfig struct {
	// ProjectID is the Google Cloud project holding the datasets
	ProjectID string `yaml:"project_id" json:"project_id" mapstructure:"project_id"`
	// CredentialsFile is a service account key file; empty uses application default credentials
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
	// AccessToken is a short-lived OAuth2 bearer token; it wins over CredentialsFile
	AccessToken string `yaml:"access_token" json:"access_token" mapstructure:"access_token"`
	// Location is the dataset location used for INFORMATION_SCHEMA queries
	Location string `yaml:"location" json:"location" mapstructure:"location"`
	// Endpoint points the client at an emulator; authentication is skipped
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
}
