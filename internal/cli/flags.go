package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile  string
	Provider string
	Locale   string
	Verbose  bool

	// serve flags
	Addr string

	// translate flags
	From string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Provider: "Microsoft",
		Locale:   "en",
		Addr:     ":8080",
	}
}
