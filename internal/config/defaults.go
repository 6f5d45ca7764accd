package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/billsync/data/db/bills.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/billsync/data/indices/bills"
	}
	if cfg.Storage.RecordCacheSize == 0 {
		cfg.Storage.RecordCacheSize = 1024
	}
	if cfg.Indexing.Enabled == nil {
		t := true
		cfg.Indexing.Enabled = &t
	}
	if cfg.Indexing.RebuildBatchSize == 0 {
		cfg.Indexing.RebuildBatchSize = 1000
	}
	if cfg.Indexing.FetchWorkers == 0 {
		cfg.Indexing.FetchWorkers = 8
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
}
