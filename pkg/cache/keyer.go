package cache

// Keyer derives cache keys.
type Keyer interface {
	// SourceKey keys the raw bytes fetched from location.
	SourceKey(location string) string

	// ReportKey keys a report computed from a source with the given hash.
	ReportKey(sourceHash string, opts ReportKeyOpts) string
}

// ReportKeyOpts lists every option that changes a report's content.
type ReportKeyOpts struct {
	Sheet      string            `json:"sheet"`
	SkipRows   int               `json:"skip_rows"`
	SkipFooter int               `json:"skip_footer"`
	FirstYear  int               `json:"first_year"`
	LastYear   int               `json:"last_year"`
	TopN       int               `json:"top_n"`
	DecadeTop  int               `json:"decade_top"`
	Bins       int               `json:"bins"`
	Thresholds int               `json:"thresholds"`
	Duplicates string            `json:"duplicates"`
	Countries  []string          `json:"countries,omitempty"`
	Views      []string          `json:"views,omitempty"`
	Drop       []string          `json:"drop,omitempty"`
	Rename     map[string]string `json:"rename,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SourceKey returns "source:<location>".
func (DefaultKeyer) SourceKey(location string) string {
	return "source:" + location
}

// ReportKey returns "report:<sha256 of hash and options>".
func (DefaultKeyer) ReportKey(sourceHash string, opts ReportKeyOpts) string {
	return hashKey("report", sourceHash, opts)
}

// ScopedKeyer prefixes every key produced by an inner [Keyer].
//
//	shared := cache.NewScopedKeyer(nil, "widetable:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SourceKey returns the prefixed source key.
func (k *ScopedKeyer) SourceKey(location string) string {
	return k.prefix + k.inner.SourceKey(location)
}

// ReportKey returns the prefixed report key.
func (k *ScopedKeyer) ReportKey(sourceHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(sourceHash, opts)
}
