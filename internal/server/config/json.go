package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/userservice/internal/flagx"
	"github.com/dmitrijs2005/userservice/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Durations
// accept both "15m" strings and integer nanoseconds. Only fields present in
// the file override the current Config.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	TokenIssuer                 *string         `json:"token_issuer"`
	TokenSubject                *string         `json:"token_subject"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	StorageTimeout              *timex.Duration `json:"storage_timeout"`
	RevocationPurgeInterval     *timex.Duration `json:"revocation_purge_interval"`
	AvatarReconcileInterval     *timex.Duration `json:"avatar_reconcile_interval"`
	AvatarOrphanGrace           *timex.Duration `json:"avatar_orphan_grace"`
	MaxAvatarSize               *int64          `json:"max_avatar_size"`
	IDSeed                      *string         `json:"id_seed"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens. An unreadable file or invalid JSON panics: a broken config
// file must stop the service at startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenSubject, c.TokenSubject)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.IDSeed, c.IDSeed)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.StorageTimeout != nil {
		config.StorageTimeout = c.StorageTimeout.Duration
	}
	if c.RevocationPurgeInterval != nil {
		config.RevocationPurgeInterval = c.RevocationPurgeInterval.Duration
	}
	if c.AvatarReconcileInterval != nil {
		config.AvatarReconcileInterval = c.AvatarReconcileInterval.Duration
	}
	if c.AvatarOrphanGrace != nil {
		config.AvatarOrphanGrace = c.AvatarOrphanGrace.Duration
	}
	if c.MaxAvatarSize != nil {
		config.MaxAvatarSize = *c.MaxAvatarSize
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
