package domain

// Source is one publisher entry of the source catalogue.
type Source struct {
	Name           string `json:"name" yaml:"name"`
	Domain         string `json:"domain" yaml:"domain"`
	PrimaryRSS     string `json:"primary_rss,omitempty" yaml:"primary_rss"`
	BackupRSS      string `json:"backup_rss,omitempty" yaml:"backup_rss"`
	Trusted        bool   `json:"trusted" yaml:"trusted"`
	AuthorityLevel int    `json:"authority_level" yaml:"authority_level"`
	Note           string `json:"note,omitempty" yaml:"note"`
}

// BlacklistEntry is a news hash that must never be re-admitted.
type BlacklistEntry struct {
	NewsHash string `json:"news_hash"`
	Reason   string `json:"reason,omitempty"`
}
