package cfg

type Cfg struct {
	// Run configuration
	FeedsDir     string
	StatePath    string
	ArchivePath  string
	Destinations []string
	ForceLatest  bool
	DryRun       bool
	WorkerCount  int
	Timeout      int

	// Destination credentials
	MastodonServer      string
	MastodonAccessToken string
	MastodonVisibility  string
	LemmyServer         string
	LemmyUsername       string
	LemmyPassword       string
	LemmyCommunity      string
	WebhookURL          string

	// Application settings
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
